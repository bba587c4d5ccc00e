package controllers

import (
	"net/http"

	"imagehub/auth"
	"imagehub/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing.
const maxUploadMemory = 32 << 20

// ImageController exposes image upload and CRUD under /images. Every route
// requires authentication.
type ImageController struct {
	imageService services.ImageService
	authFilter   restful.FilterFunction
}

// NewImageController creates an ImageController instance.
func NewImageController(imageService services.ImageService, authFilter restful.FilterFunction) *ImageController {
	return &ImageController{imageService: imageService, authFilter: authFilter}
}

// RegisterRoutes sets up the image-related routes for a go-restful WebService.
func (ctl *ImageController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/images").Produces(restful.MIME_JSON)

	ws.Route(ws.POST("/upload").Filter(ctl.authFilter).Consumes("multipart/form-data").To(ctl.uploadHandler).
		Doc("Upload an image file with metadata").
		Param(ws.FormParameter("file", "Image payload")).
		Param(ws.FormParameter("name", "Display name")).
		Param(ws.FormParameter("description", "Optional description")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"images"}).
		Returns(http.StatusCreated, "Image created", services.ImageResponse{}).
		Returns(http.StatusBadRequest, "Missing file or name", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("").Filter(ctl.authFilter).To(ctl.listHandler).
		Doc("List images with pagination, scoped by role").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("limit", "Images per page (default 12)").DataType("integer").DefaultValue("12")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"images"}).
		Writes(services.PaginatedImagesResponse{}).
		Returns(http.StatusOK, "Images listed successfully", services.PaginatedImagesResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("/{image-id}").Filter(ctl.authFilter).To(ctl.getHandler).
		Doc("Get image by ID").
		Param(ws.PathParameter("image-id", "Identifier of the image").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"images"}).
		Writes(services.ImageResponse{}).
		Returns(http.StatusOK, "Image found", services.ImageResponse{}).
		Returns(http.StatusUnauthorized, "Not owner or elevated role", nil).
		Returns(http.StatusNotFound, "Image not found", nil))

	ws.Route(ws.PUT("/{image-id}").Filter(ctl.authFilter).Consumes(restful.MIME_JSON).To(ctl.updateHandler).
		Doc("Update image metadata (owner only)").
		Param(ws.PathParameter("image-id", "Identifier of the image").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"images"}).
		Reads(services.UpdateImageInput{}).
		Writes(services.ImageResponse{}).
		Returns(http.StatusOK, "Image updated", services.ImageResponse{}).
		Returns(http.StatusUnauthorized, "Not owner", nil).
		Returns(http.StatusNotFound, "Image not found", nil))

	ws.Route(ws.DELETE("/{image-id}").Filter(ctl.authFilter).To(ctl.deleteHandler).
		Doc("Delete image and its backing file (owner only)").
		Param(ws.PathParameter("image-id", "Identifier of the image").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"images"}).
		Returns(http.StatusOK, "Image deleted", services.DeleteImageResult{}).
		Returns(http.StatusUnauthorized, "Not owner", nil).
		Returns(http.StatusNotFound, "Image not found", nil))
}

// --- Handler Functions ---

func (ctl *ImageController) uploadHandler(request *restful.Request, response *restful.Response) {
	callerID, _, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := request.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := request.Request.FormFile("file")
	if err != nil {
		writeMessage(response, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	input := &services.CreateImageInput{
		Name:        request.Request.FormValue("name"),
		Description: request.Request.FormValue("description"),
	}
	if err := validate.Struct(input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	image, err := ctl.imageService.SaveImage(file, header.Filename, input, callerID)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, image, restful.MIME_JSON)
}

func (ctl *ImageController) listHandler(request *restful.Request, response *restful.Response) {
	callerID, callerRole, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page := queryInt(request, "page", 1)
	limit := queryInt(request, "limit", 12)

	result, err := ctl.imageService.GetAllImages(page, limit, callerID, callerRole)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(result)
}

func (ctl *ImageController) getHandler(request *restful.Request, response *restful.Response) {
	callerID, callerRole, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	imageID, okID := pathID(request, response, "image-id")
	if !okID {
		return
	}

	image, err := ctl.imageService.GetImageByID(imageID, callerID, callerRole)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(image)
}

func (ctl *ImageController) updateHandler(request *restful.Request, response *restful.Response) {
	callerID, callerRole, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	imageID, okID := pathID(request, response, "image-id")
	if !okID {
		return
	}

	input := new(services.UpdateImageInput)
	if !readValidatedEntity(request, response, input) {
		return
	}

	image, err := ctl.imageService.UpdateImage(imageID, input, callerID, callerRole)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(image)
}

func (ctl *ImageController) deleteHandler(request *restful.Request, response *restful.Response) {
	callerID, callerRole, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	imageID, okID := pathID(request, response, "image-id")
	if !okID {
		return
	}

	result, err := ctl.imageService.DeleteImage(imageID, callerID, callerRole)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(result)
}
