package handlers

import (
	"fmt"
	"mime"

	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/middleware"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/services"
	"github.com/kartiksrathod/Eduu/internal/storage"
)

// resourceRoutes serves the CRUD and file routes of one resource kind.
type resourceRoutes struct {
	h    *Handler
	kind models.Kind
}

func noop() {}

// formUpload reads an optional multipart file. A missing file yields a nil
// upload; the caller decides whether that is an error.
func formUpload(c *fiber.Ctx, field string) (*services.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperr.BadRequest("Invalid file upload")
	}
	up := &services.Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Body:        f,
	}
	return up, func() { _ = f.Close() }, nil
}

// formValue returns nil when the field was not sent at all.
func formValue(c *fiber.Ctx, name string) *string {
	if form, err := c.MultipartForm(); err == nil {
		if v, ok := form.Value[name]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	if v := c.FormValue(name); v != "" {
		return &v
	}
	return nil
}

func formList(c *fiber.Ctx, name string) *[]string {
	v := formValue(c, name)
	if v == nil {
		return nil
	}
	list := services.SplitList(*v)
	return &list
}

func resourceInput(c *fiber.Ctx) services.ResourceInput {
	return services.ResourceInput{
		Title:       formValue(c, "title"),
		Description: formValue(c, "description"),
		Abstract:    formValue(c, "abstract"),
		Content:     formValue(c, "content"),
		Authors:     formList(c, "authors"),
		Tags:        formList(c, "tags"),
		CourseCode:  formValue(c, "course_code"),
		Branch:      formValue(c, "branch"),
		Year:        formValue(c, "year"),
	}
}

// sendObject streams obj to the client. The stream is closed by Fiber once
// written. An empty filename omits Content-Disposition.
func sendObject(c *fiber.Ctx, obj *storage.Object, filename string, attachment bool) error {
	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	}
	if filename != "" {
		disposition := "inline"
		if attachment {
			disposition = "attachment"
		}
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType(disposition, map[string]string{"filename": filename}))
	}
	return c.SendStream(obj.Body, int(obj.Size))
}

func (r resourceRoutes) List(c *fiber.Ctx) error {
	skip, limit, err := r.h.pager.Parse(c.Query("skip"), c.Query("limit"))
	if err != nil {
		return err
	}

	page, err := r.h.Resources.List(c.UserContext(), r.kind, skip, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       page.Data,
		"pagination": page.Pagination,
	})
}

func (r resourceRoutes) create(c *fiber.Ctx, kind models.Kind) error {
	up, closeFile, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	res, err := r.h.Resources.Create(c.UserContext(), kind, resourceInput(c), up, middleware.Subject(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%s created successfully", kind.Title()),
		"data":    res,
	})
}

func (r resourceRoutes) Create(c *fiber.Ctx) error {
	return r.create(c, r.kind)
}

func (r resourceRoutes) Get(c *fiber.Ctx) error {
	res, err := r.h.Resources.Get(c.UserContext(), r.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": res})
}

func (r resourceRoutes) Update(c *fiber.Ctx) error {
	up, closeFile, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	res, err := r.h.Resources.Update(c.UserContext(), r.kind, c.Params("id"), resourceInput(c), up)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%s updated successfully", r.kind.Title()),
		"data":    res,
	})
}

func (r resourceRoutes) Delete(c *fiber.Ctx) error {
	if err := r.h.Resources.Delete(c.UserContext(), r.kind, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%s deleted successfully", r.kind.Title()),
	})
}

func (r resourceRoutes) Download(c *fiber.Ctx) error {
	res, obj, err := r.h.Resources.Download(c.UserContext(), r.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return sendObject(c, obj, res.File.Name, true)
}

func (r resourceRoutes) View(c *fiber.Ctx) error {
	res, obj, err := r.h.Resources.View(c.UserContext(), r.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return sendObject(c, obj, res.File.Name, false)
}

func kindParam(c *fiber.Ctx) (models.Kind, error) {
	kind, ok := models.ParsePath(c.Params("kind"))
	if !ok {
		return "", apperr.NotFound("Unknown resource type")
	}
	return kind, nil
}

// UploadAlias creates a resource of the kind named in the path.
func (h *Handler) UploadAlias(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	return resourceRoutes{h: h}.create(c, kind)
}

// DownloadAlias streams <kind-path>/<filename> without touching the record.
func (h *Handler) DownloadAlias(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	filename := c.Params("filename")
	obj, err := h.Resources.OpenByFilename(c.UserContext(), kind, filename)
	if err != nil {
		return err
	}
	return sendObject(c, obj, filename, true)
}
