// Package cloudtasks schedules HTTP tasks on Google Cloud Tasks
package cloudtasks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrs "errors"
	"fmt"
	"net/http"

	perr "reaper/internal/platform/errors"

	api "google.golang.org/api/cloudtasks/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Task is the handle returned for a scheduled task
type Task struct {
	Name string `json:"name"`
}

// TaskCreator is the one queue call the client needs
type TaskCreator interface {
	CreateTask(ctx context.Context, parent string, req *api.CreateTaskRequest) (*api.Task, error)
}

// Client enqueues payloads of type T as JSON POST tasks
type Client[T any] struct {
	opts    Options
	creator TaskCreator
}

// New wraps an existing creator; tests pass a fake here
func New[T any](opts Options, creator TaskCreator) *Client[T] {
	return &Client[T]{opts: opts, creator: creator}
}

// newService is a seam over the API constructor
var newService = api.NewService

// Dial builds the REST client from opts and returns a Client over it
func Dial[T any](ctx context.Context, opts Options) (*Client[T], error) {
	if opts.ProjectID == "" || opts.LocationID == "" {
		return nil, perr.Newf(perr.ErrorCodeValidation, "cloudtasks: project and location are required")
	}
	var co []option.ClientOption
	if opts.Endpoint != "" {
		co = append(co, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	} else if opts.CredentialsFile != "" {
		co = append(co, option.WithCredentialsFile(opts.CredentialsFile))
	}
	svc, err := newService(ctx, co...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "cloudtasks: dial")
	}
	return New[T](opts, serviceCreator{svc: svc}), nil
}

// Parent returns the full queue resource name
func (c *Client[T]) Parent(queue string) string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", c.opts.ProjectID, c.opts.LocationID, queue)
}

// Enqueue schedules task for delivery to taskURL on queue
func (c *Client[T]) Enqueue(ctx context.Context, queue, taskURL string, task T) (Task, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return Task{}, perr.Wrap(err, perr.ErrorCodeJSON, "cloudtasks: encode task")
	}
	req := &api.CreateTaskRequest{
		Task: &api.Task{
			HttpRequest: &api.HttpRequest{
				Url:        taskURL,
				HttpMethod: http.MethodPost,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       base64.StdEncoding.EncodeToString(body),
				OidcToken: &api.OidcToken{
					Audience:            c.opts.OIDCAudience,
					ServiceAccountEmail: c.opts.ServiceAccountEmail,
				},
			},
		},
	}
	out, err := c.creator.CreateTask(ctx, c.Parent(queue), req)
	if err != nil {
		return Task{}, fromAPI(err)
	}
	if out == nil || out.Name == "" {
		return Task{}, perr.Newf(perr.ErrorCodeDependency, "cloudtasks: created task has no name")
	}
	return Task{Name: out.Name}, nil
}

// fromAPI keeps the original error in the chain and classifies it
func fromAPI(err error) error {
	var ge *googleapi.Error
	if stderrs.As(err, &ge) {
		switch {
		case ge.Code == http.StatusTooManyRequests || ge.Code >= 500:
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "cloudtasks: create task (%d)", ge.Code)
		case ge.Code == http.StatusUnauthorized || ge.Code == http.StatusForbidden:
			return perr.Wrapf(err, perr.ErrorCodeUnauthorized, "cloudtasks: create task (%d)", ge.Code)
		}
		return perr.Wrapf(err, perr.ErrorCodeDependency, "cloudtasks: create task (%d)", ge.Code)
	}
	return perr.Wrap(err, perr.ErrorCodeDependency, "cloudtasks: create task")
}

type serviceCreator struct{ svc *api.Service }

func (s serviceCreator) CreateTask(ctx context.Context, parent string, req *api.CreateTaskRequest) (*api.Task, error) {
	return s.svc.Projects.Locations.Queues.Tasks.Create(parent, req).Context(ctx).Do()
}
