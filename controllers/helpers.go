package controllers

import (
	"net/http"

	"imagehub/services"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-playground/validator/v10"
)

// validate checks request bodies before they reach the services.
var validate = validator.New()

// readValidatedEntity decodes the request body into entity and runs struct
// validation, writing a 400 itself on failure.
func readValidatedEntity(request *restful.Request, response *restful.Response, entity interface{}) bool {
	if err := request.ReadEntity(entity); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(entity); err != nil {
		writeMessage(response, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// writeServiceError translates a typed service error into an HTTP status.
// Unexpected errors surface as a generic 500.
func writeServiceError(response *restful.Response, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	switch services.KindOf(err) {
	case services.KindConflict:
		status, message = http.StatusConflict, err.Error()
	case services.KindUnauthorized:
		status, message = http.StatusUnauthorized, err.Error()
	case services.KindForbidden:
		status, message = http.StatusForbidden, err.Error()
	case services.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case services.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	}

	writeMessage(response, status, message)
}

func writeMessage(response *restful.Response, status int, message string) {
	_ = response.WriteHeaderAndJson(status, map[string]string{"message": message}, restful.MIME_JSON)
}
