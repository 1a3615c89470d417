package response

import (
	"net/http"

	"go-hrms/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response: {ok, data, meta, error}.
type Envelope struct {
	Ok    bool            `json:"ok"`
	Data  any             `json:"data,omitempty"`
	Meta  *PaginationMeta `json:"meta,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type PaginationMeta struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page,omitempty"`
	PageSize   int   `json:"pageSize,omitempty"`
}

func NewPaginationMeta(total int64, page, pageSize int) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationMeta{
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}
}

func Success(c *gin.Context, status int, data any, meta *PaginationMeta) {
	c.JSON(status, Envelope{Ok: true, Data: data, Meta: meta})
}

// Paged writes one page of a list with its pagination meta.
func Paged(c *gin.Context, data any, total int64, page, pageSize int) {
	meta := NewPaginationMeta(total, page, pageSize)
	Success(c, http.StatusOK, data, &meta)
}

func Error(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, Envelope{
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// Fail reports err with the status and code of the AppError it wraps.
// Anything else is an internal error and its cause is not exposed.
func Fail(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Abort is Fail for middleware: the remaining handlers do not run.
func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

// Attachment streams a generated file as a download.
func Attachment(c *gin.Context, filename, contentType string, content []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, content)
}
