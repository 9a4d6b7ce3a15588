package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// FieldRedirect is the form field that turns a JSON answer into a redirect
// carrying the status message as `?flash=`. Browser forms on the index page
// set it to "/".
const FieldRedirect = "redirect"

func AbortWithError(ctx *gin.Context, status int, code string, err error) {
	ctx.Abort()
	_ = ctx.Error(err)

	if target, ok := redirectTarget(ctx); ok {
		redirectWithFlash(ctx, target, err.Error())
		return
	}

	ctx.PureJSON(status, APIError{
		Code:    code,
		Message: err.Error(),
	})
}

// AbortWithDomainError classifies err before aborting
func AbortWithDomainError(ctx *gin.Context, err error) {
	status, code := Classify(err)
	AbortWithError(ctx, status, code, err)
}

// Respond writes body as JSON or, for redirecting form posts, redirects
// with message as the flash text.
func Respond(ctx *gin.Context, status int, message string, body any) {
	if target, ok := redirectTarget(ctx); ok {
		redirectWithFlash(ctx, target, message)
		return
	}
	ctx.PureJSON(status, body)
}

func redirectTarget(ctx *gin.Context) (string, bool) {
	target := ctx.Query(FieldRedirect)
	if target == "" && ctx.Request.Method != http.MethodGet {
		target = ctx.PostForm(FieldRedirect)
	}

	// local paths only
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "", false
	}
	return target, true
}

func redirectWithFlash(ctx *gin.Context, target, message string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("flash", message)
	u.RawQuery = q.Encode()
	ctx.Redirect(http.StatusSeeOther, u.String())
}
