package http

import (
	"net/http"

	"reaper/internal/platform/net/http/bind"
)

// JSONHandler binds and validates T from the body, then wraps fn's result in a 200
// a Response returned by fn is written as is
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return jsonHandler(http.StatusOK, fn)
}

// AcceptedJSONHandler is JSONHandler answering 202 for queued work
func AcceptedJSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return jsonHandler(http.StatusAccepted, fn)
}

func jsonHandler[T any](status int, fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return Response{Status: status, Body: out}
	})
}

// JSONHandlerNoBody calls fn without parsing a request body and wraps the result
func JSONHandlerNoBody(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}
