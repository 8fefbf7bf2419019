package routes

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"
	"github.com/soitgoes511/graph-network-visualizer/internal/server/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"

	"github.com/labstack/echo/v4"
)

type processBody struct {
	URLs      string `form:"urls"`
	Depth     int    `form:"depth" validate:"min=1,max=4"`
	NodeLimit int    `form:"node_limit" validate:"min=1"`
	LinkLimit int    `form:"link_limit" validate:"min=1"`
}

// ProcessHandler builds a new query from multipart/form-data: a JSON array
// of urls, the crawl depth, the preview limits and any number of files.
func ProcessHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	opts := app.Graph.ViewOptions()

	data := &processBody{
		Depth:     1,
		NodeLimit: opts.DefaultNodeLimit,
		LinkLimit: opts.DefaultLinkLimit,
	}
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	urls, err := util.ParseURLList(data.URLs)
	if err != nil {
		return respondError(c, err)
	}

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		files = form.File["files"]
	case errors.Is(err, http.ErrNotMultipart):
	default:
		return badRequest(c, "Invalid request body")
	}

	uploads := make([]loader.Upload, 0, len(files))
	for _, file := range files {
		up, err := readUpload(file)
		if err != nil {
			return badRequest(c, err.Error())
		}
		uploads = append(uploads, up)
	}

	resp, err := app.Graph.Process(c.Request().Context(), loader.Batch{
		URLs:      urls,
		Uploads:   uploads,
		Depth:     data.Depth,
		NodeLimit: data.NodeLimit,
		LinkLimit: data.LinkLimit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func readUpload(file *multipart.FileHeader) (loader.Upload, error) {
	src, err := file.Open()
	if err != nil {
		return loader.Upload{}, fmt.Errorf("failed to open upload %s", file.Filename)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return loader.Upload{}, fmt.Errorf("failed to read upload %s", file.Filename)
	}
	return loader.Upload{Name: file.Filename, Content: content}, nil
}
