package response

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Code is one of the fixed, numbered user-facing error conditions. The
// numbers are part of the URL surface (/error/<code>) and must stay stable.
type Code int

const (
	CodeDuplicateBarcode      Code = 0
	CodeBarcodeNotFound       Code = 1
	CodeNoResults             Code = 3
	CodeNoTransactions        Code = 4
	CodeTransactionNotFound   Code = 5
	CodeBarcodeUnknown        Code = 6
	CodeOptionDuplicate       Code = 7
	CodeNotAdmin              Code = 8
	CodeOptionNotFound        Code = 9
	CodeBarcodeNotInInventory Code = 10
	CodeHostnameDuplicate     Code = 11
	CodeHostnameNotFound      Code = 12
)

// NoCode marks an error that has no numbered condition.
const NoCode Code = -1

var messages = map[Code]string{
	CodeDuplicateBarcode:      "Given barcode is already in inventory table.",
	CodeBarcodeNotFound:       "Given barcode is not in inventory table.",
	CodeNoResults:             "Search yielded no results.",
	CodeNoTransactions:        "No transactions exist for given barcode.",
	CodeTransactionNotFound:   "Given transaction ID is not in transactions table.",
	CodeBarcodeUnknown:        "Given barcode is not in inventory table or transaction table.",
	CodeOptionDuplicate:       "Given option value is already in given dropdown list.",
	CodeNotAdmin:              "You do not have admin permissions.",
	CodeOptionNotFound:        "Given option value is not in given dropdown list.",
	CodeBarcodeNotInInventory: "Barcode does not exist in Inventory table.",
	CodeHostnameDuplicate:     "Given hostname is already in hostname table.",
	CodeHostnameNotFound:      "Given hostname does not exist.",
}

// Message returns the user-facing text for a numbered condition.
func Message(code Code) (string, bool) {
	msg, ok := messages[code]
	return msg, ok
}

// ParseCode parses the path form of a code. Unknown numbers are rejected.
func ParseCode(raw string) (Code, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return NoCode, false
	}
	code := Code(n)
	if _, ok := messages[code]; !ok {
		return NoCode, false
	}
	return code, true
}

// ErrorPath is the error page URL for code.
func ErrorPath(code Code) string {
	return fmt.Sprintf("/error/%d", code)
}

// Coded is implemented by errors that map to a numbered condition.
type Coded interface {
	error
	ErrorCode() Code
}

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Code       Code   // numbered condition, NoCode when outside the table
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) ErrorCode() Code {
	return e.Code
}

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: NoCode, Message: msg}
}

// --- Gin response helpers ---

// Redirect sends a 303 so a POST is followed by a GET.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}

// RedirectCode sends the client to the error page for code.
func RedirectCode(c *gin.Context, code Code) {
	Redirect(c, ErrorPath(code))
}

// Error resolves err for the client. Errors carrying a numbered condition
// redirect to its error page; an *AppError without one is written as text
// with its status; anything else is a 500.
func Error(c *gin.Context, err error) {
	var coded Coded
	if errors.As(err, &coded) && coded.ErrorCode() != NoCode {
		RedirectCode(c, coded.ErrorCode())
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.String(appErr.HTTPStatus, appErr.Message)
		c.Abort()
		return
	}
	ServerError(c)
}

// ServerError writes a plain 500 without leaking the cause.
func ServerError(c *gin.Context) {
	c.String(http.StatusInternalServerError, "internal server error")
	c.Abort()
}
