package controller

import "net/http"

// Kind identifies what the hosting layer should do with a Result
type Kind int

const (
	KindRenderView Kind = iota + 1
	KindRedirect
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindRenderView:
		return "render_view"
	case KindRedirect:
		return "redirect"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result is the outcome of a controller action
type Result struct {
	Kind       Kind
	View       string // View to render, KindRenderView only
	Model      any    // View model, KindRenderView only
	Action     string // Target action, KindRedirect only
	StatusCode int
}

// RenderView renders view with model
func RenderView(view string, model any) Result {
	return Result{Kind: KindRenderView, View: view, Model: model, StatusCode: http.StatusOK}
}

// Redirect sends the client to action
func Redirect(action string) Result {
	return Result{Kind: KindRedirect, Action: action, StatusCode: http.StatusSeeOther}
}

// NotFound reports that the requested record does not exist
func NotFound() Result {
	return Result{Kind: KindNotFound, StatusCode: http.StatusNotFound}
}
