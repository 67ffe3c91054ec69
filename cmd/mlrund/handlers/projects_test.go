package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	handlers "github.com/quaark/mlrun-remote-project/cmd/mlrund/handlers"
	httptestutil "github.com/quaark/mlrun-remote-project/internal/testutils/http"
	apifunctions "github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	apiprojects "github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	apiworkflows "github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kstore "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/store"
	mockstore "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/store/mock"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	mockdbfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db/mock"
	mockdbproject "github.com/quaark/mlrun-remote-project/pkg/domain/project/db/mock"
	mockdbworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db/mock"
	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
)

func emptyFunctionAndWorkflowMocks(t *testing.T) (*mockdbfunction.FunctionInterface, *mockdbworkflow.WorkflowInterface) {
	t.Helper()

	mockFunction := mockdbfunction.NewFunctionInterface()
	mockFunction.Impl.Find = func(context.Context, domain.FunctionFindQuery) ([]domain.Function, error) {
		return []domain.Function{}, nil
	}
	mockWorkflow := mockdbworkflow.NewWorkflowInterface()
	mockWorkflow.Impl.Find = func(context.Context, string) ([]string, error) {
		return []string{}, nil
	}
	mockWorkflow.Impl.Get = func(context.Context, string, []string) (map[string]domain.Workflow, error) {
		return map[string]domain.Workflow{}, nil
	}
	return mockFunction, mockWorkflow
}

func TestRegisterProjectHandler(t *testing.T) {
	t.Run("it registers a project and responses its detail", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339DateTime(
			"2024-10-01T12:00:00+00:00",
		)).OrFatal(t).Time()

		mockProject := mockdbproject.NewProjectInterface()
		mockProject.Impl.Register = func(ctx context.Context, name string, source string) (domain.Project, error) {
			return domain.Project{Name: name, Source: source, CreatedAt: createdAt}, nil
		}
		mockFunction, mockWorkflow := emptyFunctionAndWorkflowMocks(t)

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/projects",
			bytes.NewBufferString(`{"name": "sales-forecast", "source": "https://github.com/example/sales.git"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.RegisterProjectHandler(mockProject, mockFunction, mockWorkflow)
		if err := testee(c); err != nil {
			t.Fatalf("response is not illegal. error = %v", err)
		}

		if !cmp.SliceEq(
			mockProject.Calls.Register,
			[]struct {
				Name   string
				Source string
			}{
				{Name: "sales-forecast", Source: "https://github.com/example/sales.git"},
			},
		) {
			t.Errorf("unmatch: params for ProjectInterface.Register: %+v", mockProject.Calls.Register)
		}

		{
			expected := 200
			actual := respRec.Result().StatusCode
			if actual != expected {
				t.Errorf("status code %d != %d", actual, expected)
			}
		}

		actual := apiprojects.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v:\n===body===\n%s", err, respRec.Body.String())
		}
		expected := apiprojects.Detail{
			Summary: apiprojects.Summary{
				Name:      "sales-forecast",
				Source:    "https://github.com/example/sales.git",
				CreatedAt: rfctime.New(createdAt),
			},
			Functions: []apifunctions.Summary{},
			Workflows: []apiworkflows.Summary{},
		}
		if !actual.Equal(expected) {
			t.Errorf(
				"data does not match. (actual, expected) = \n(%+v, \n%+v)",
				actual, expected,
			)
		}
	})

	t.Run("it returns error response", func(t *testing.T) {
		type when struct {
			contentType     string
			body            string
			errorOnRegister error
		}
		type then struct {
			statusCode int
		}

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"(Bad Request) when content type is not application/json": {
				when{
					contentType: "text/plain",
					body:        `{"name": "sales-forecast"}`,
				},
				then{statusCode: http.StatusBadRequest},
			},
			"(Bad Request) when the body is not a json": {
				when{
					contentType: "application/json",
					body:        `it is not a json`,
				},
				then{statusCode: http.StatusBadRequest},
			},
			"(Bad Request) when the name is missing": {
				when{
					contentType: "application/json",
					body:        `{"source": "https://github.com/example/sales.git"}`,
				},
				then{statusCode: http.StatusBadRequest},
			},
			"(Internal Server Error) when ProjectInterface.Register causes error": {
				when{
					contentType:     "application/json",
					body:            `{"name": "sales-forecast"}`,
					errorOnRegister: errors.New("dummy error"),
				},
				then{statusCode: http.StatusInternalServerError},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockProject := mockdbproject.NewProjectInterface()
				mockProject.Impl.Register = func(context.Context, string, string) (domain.Project, error) {
					return domain.Project{}, testcase.when.errorOnRegister
				}
				mockFunction, mockWorkflow := emptyFunctionAndWorkflowMocks(t)

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/projects",
					bytes.NewBufferString(testcase.when.body),
					httptestutil.ContentType(testcase.when.contentType),
				)

				testee := handlers.RegisterProjectHandler(mockProject, mockFunction, mockWorkflow)
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("unexpected error: %+v", err)
				}
				if echoErr.Code != testcase.then.statusCode {
					t.Errorf("status code %d != %d", echoErr.Code, testcase.then.statusCode)
				}
			})
		}
	})
}

func TestFindProjectHandler(t *testing.T) {
	t.Run("it returns OK with project summaries", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339DateTime(
			"2024-10-01T12:00:00+00:00",
		)).OrFatal(t).Time()

		projects := map[string]domain.Project{
			"app-a": {Name: "app-a", CreatedAt: createdAt},
			"app-b": {Name: "app-b", Source: "https://github.com/example/b.git", CreatedAt: createdAt},
		}

		type when struct {
			request string
		}
		type then struct {
			findIsCalled bool
			getArgs      []string
			body         []apiprojects.Summary
		}

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"with every project when no query is given": {
				when{request: "/api/projects"},
				then{
					findIsCalled: true,
					getArgs:      []string{"app-a", "app-b"},
					body: []apiprojects.Summary{
						{Name: "app-a", CreatedAt: rfctime.New(createdAt)},
						{Name: "app-b", Source: "https://github.com/example/b.git", CreatedAt: rfctime.New(createdAt)},
					},
				},
			},
			"with the named projects only": {
				when{request: "/api/projects?name=app-b"},
				then{
					findIsCalled: false,
					getArgs:      []string{"app-b"},
					body: []apiprojects.Summary{
						{Name: "app-b", Source: "https://github.com/example/b.git", CreatedAt: rfctime.New(createdAt)},
					},
				},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockProject := mockdbproject.NewProjectInterface()
				mockProject.Impl.Find = func(context.Context) ([]string, error) {
					return []string{"app-a", "app-b"}, nil
				}
				mockProject.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Project, error) {
					found := map[string]domain.Project{}
					for _, n := range names {
						if p, ok := projects[n]; ok {
							found[n] = p
						}
					}
					return found, nil
				}

				e := echo.New()
				c, respRec := httptestutil.Get(e, testcase.when.request)

				testee := handlers.FindProjectHandler(mockProject)
				if err := testee(c); err != nil {
					t.Fatalf("response is not illegal. error = %v", err)
				}

				if testcase.then.findIsCalled != (len(mockProject.Calls.Find) == 1) {
					t.Errorf(
						"unmatch: ProjectInterface.Find is called %d times",
						len(mockProject.Calls.Find),
					)
				}
				if !cmp.SliceEqWith(
					mockProject.Calls.Get,
					[][]string{testcase.then.getArgs},
					func(actual struct{ Name []string }, expected []string) bool {
						return cmp.SliceContentEq(actual.Name, expected)
					},
				) {
					t.Errorf(
						"unmatch: params for ProjectInterface.Get:\n- actual:\n%+v\n- expected:\n%+v",
						mockProject.Calls.Get, testcase.then.getArgs,
					)
				}

				{
					expected := "application/json"
					actual := strings.Split(respRec.Result().Header.Get("Content-Type"), ";")[0]
					if actual != expected {
						t.Errorf("Content-Type: %s != %s", actual, expected)
					}
				}

				actual := []apiprojects.Summary{}
				if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
					t.Fatalf("response is not json: error = %v:\n===body===\n%s", err, respRec.Body.String())
				}
				if !cmp.SliceEqWith(actual, testcase.then.body, apiprojects.Summary.Equal) {
					t.Errorf(
						"data does not match. (actual, expected) = \n(%+v, \n%+v)",
						actual, testcase.then.body,
					)
				}
			})
		}
	})

	t.Run("(Internal Server Error) when ProjectInterface.Get causes error", func(t *testing.T) {
		mockProject := mockdbproject.NewProjectInterface()
		mockProject.Impl.Find = func(context.Context) ([]string, error) {
			return []string{"app-a"}, nil
		}
		mockProject.Impl.Get = func(context.Context, []string) (map[string]domain.Project, error) {
			return nil, errors.New("dummy error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/projects")

		testee := handlers.FindProjectHandler(mockProject)
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}
		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("unexpected error: %+v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("status code %d != %d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestGetProjectHandler(t *testing.T) {
	t.Run("it returns OK with the project detail", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339DateTime(
			"2024-10-01T12:00:00+00:00",
		)).OrFatal(t).Time()
		updatedAt := createdAt.Add(24 * time.Hour)

		mockProject := mockdbproject.NewProjectInterface()
		mockProject.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Project, error) {
			return map[string]domain.Project{
				"sales-forecast": {Name: "sales-forecast", CreatedAt: createdAt},
			}, nil
		}
		mockFunction := mockdbfunction.NewFunctionInterface()
		mockFunction.Impl.Find = func(ctx context.Context, q domain.FunctionFindQuery) ([]domain.Function, error) {
			return []domain.Function{
				{
					FunctionBody: domain.FunctionBody{
						ProjectName: "sales-forecast", Name: "train", Kind: domain.KindJob,
						Image:   &domain.ImageIdentifier{Image: "registry.example/train", Version: "v1"},
						Handler: "train.main",
					},
					UpdatedAt: updatedAt,
				},
			}, nil
		}
		mockWorkflow := mockdbworkflow.NewWorkflowInterface()
		mockWorkflow.Impl.Find = func(ctx context.Context, projectName string) ([]string, error) {
			return []string{"daily"}, nil
		}
		mockWorkflow.Impl.Get = func(ctx context.Context, projectName string, names []string) (map[string]domain.Workflow, error) {
			return map[string]domain.Workflow{
				"daily": {
					ProjectName: "sales-forecast", Name: "daily",
					Steps: []domain.WorkflowStep{
						{Name: "prep", FunctionName: "prep"},
						{Name: "train", FunctionName: "train", Needs: []string{"prep"}},
					},
					UpdatedAt: updatedAt,
				},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/projects/sales-forecast")
		c.SetParamNames("project")
		c.SetParamValues("sales-forecast")

		testee := handlers.GetProjectHandler(mockProject, mockFunction, mockWorkflow, "project")
		if err := testee(c); err != nil {
			t.Fatalf("response is not illegal. error = %v", err)
		}

		actual := apiprojects.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v:\n===body===\n%s", err, respRec.Body.String())
		}
		expected := apiprojects.Detail{
			Summary: apiprojects.Summary{
				Name: "sales-forecast", CreatedAt: rfctime.New(createdAt),
			},
			Functions: []apifunctions.Summary{
				{
					Project: "sales-forecast", Name: "train", Kind: apifunctions.KindJob,
					Image:   &apifunctions.Image{Repository: "registry.example/train", Tag: "v1"},
					Handler: "train.main",
				},
			},
			Workflows: []apiworkflows.Summary{
				{Project: "sales-forecast", Name: "daily", Steps: 2},
			},
		}
		if !actual.Equal(expected) {
			t.Errorf(
				"data does not match. (actual, expected) = \n(%+v, \n%+v)",
				actual, expected,
			)
		}
	})

	t.Run("(Not Found) when no project has the name", func(t *testing.T) {
		mockProject := mockdbproject.NewProjectInterface()
		mockProject.Impl.Get = func(context.Context, []string) (map[string]domain.Project, error) {
			return map[string]domain.Project{}, nil
		}
		mockFunction, mockWorkflow := emptyFunctionAndWorkflowMocks(t)

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/projects/nowhere")
		c.SetParamNames("project")
		c.SetParamValues("nowhere")

		testee := handlers.GetProjectHandler(mockProject, mockFunction, mockWorkflow, "project")
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}
		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("unexpected error: %+v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("status code %d != %d", echoErr.Code, http.StatusNotFound)
		}
	})
}

func TestDeleteProjectHandler(t *testing.T) {
	t.Run("it deletes the project", func(t *testing.T) {
		mockProject := mockdbproject.NewProjectInterface()
		mockProject.Impl.Delete = func(context.Context, string) error { return nil }

		e := echo.New()
		c, respRec := httptestutil.Delete(e, "/api/projects/sales-forecast")
		c.SetParamNames("project")
		c.SetParamValues("sales-forecast")

		testee := handlers.DeleteProjectHandler(mockProject, "project")
		if err := testee(c); err != nil {
			t.Fatalf("response is not illegal. error = %v", err)
		}

		if !cmp.SliceEq(
			mockProject.Calls.Delete,
			[]struct{ Name string }{{Name: "sales-forecast"}},
		) {
			t.Errorf("unmatch: params for ProjectInterface.Delete: %+v", mockProject.Calls.Delete)
		}

		expected := http.StatusNoContent
		if actual := respRec.Result().StatusCode; actual != expected {
			t.Errorf("status code %d != %d", actual, expected)
		}
	})

	t.Run("it returns error response", func(t *testing.T) {
		type when struct {
			errorOnDelete error
		}
		type then struct {
			statusCode int
		}

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"(Not Found) when no project has the name": {
				when{errorOnDelete: kerr.ErrMissing},
				then{statusCode: http.StatusNotFound},
			},
			"(Conflict) when the project has active runs or endpoints": {
				when{errorOnDelete: domain.ErrProjectActive},
				then{statusCode: http.StatusConflict},
			},
			"(Internal Server Error) when ProjectInterface.Delete causes error": {
				when{errorOnDelete: errors.New("dummy error")},
				then{statusCode: http.StatusInternalServerError},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockProject := mockdbproject.NewProjectInterface()
				mockProject.Impl.Delete = func(context.Context, string) error {
					return testcase.when.errorOnDelete
				}

				e := echo.New()
				c, _ := httptestutil.Delete(e, "/api/projects/sales-forecast")
				c.SetParamNames("project")
				c.SetParamValues("sales-forecast")

				testee := handlers.DeleteProjectHandler(mockProject, "project")
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}
				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("unexpected error: %+v", err)
				}
				if echoErr.Code != testcase.then.statusCode {
					t.Errorf("status code %d != %d", echoErr.Code, testcase.then.statusCode)
				}
			})
		}
	})
}

func TestPostProjectSourceHandler(t *testing.T) {
	knownProject := func(t *testing.T) *mockdbproject.ProjectInterface {
		t.Helper()
		mockProject := mockdbproject.NewProjectInterface()
		mockProject.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Project, error) {
			projects := map[string]domain.Project{}
			for _, n := range names {
				if n == "sales-forecast" {
					projects[n] = domain.Project{Name: n, CreatedAt: time.Now()}
				}
			}
			return projects, nil
		}
		return mockProject
	}

	t.Run("it stores the archive under the source key of the project", func(t *testing.T) {
		content := []byte("gzipped tarball, supposedly")

		mockProject := knownProject(t)
		mockStore := mockstore.New(t)

		var putKey string
		var putContent []byte
		mockStore.Impl.Put = func(ctx context.Context, key string, r io.Reader, size int64) (int64, error) {
			putKey = key
			putContent = try.To(io.ReadAll(r)).OrFatal(t)
			return int64(len(putContent)), nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/projects/sales-forecast/source",
			bytes.NewBuffer(content),
			httptestutil.ContentType("application/tar+gzip"),
		)
		c.SetParamNames("project")
		c.SetParamValues("sales-forecast")

		testee := handlers.PostProjectSourceHandler(mockProject, mockStore, "project")
		if err := testee(c); err != nil {
			t.Fatalf("response is not illegal. error = %v", err)
		}

		if expected := domain.ProjectSourceKey("sales-forecast"); putKey != expected {
			t.Errorf("unmatch: stored key: (actual, expected) = (%s, %s)", putKey, expected)
		}
		if !bytes.Equal(putContent, content) {
			t.Errorf("unmatch: stored content: (actual, expected) = (%s, %s)", putContent, content)
		}

		if expected := 200; respRec.Result().StatusCode != expected {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, expected)
		}

		actual := apiprojects.SourceSummary{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v:\n===body===\n%s", err, respRec.Body.String())
		}
		expected := apiprojects.SourceSummary{
			Project: "sales-forecast",
			Key:     domain.ProjectSourceKey("sales-forecast"),
			Size:    int64(len(content)),
		}
		if !actual.Equal(expected) {
			t.Errorf(
				"data does not match. (actual, expected) = \n(%+v, \n%+v)",
				actual, expected,
			)
		}
	})

	t.Run("it returns error response", func(t *testing.T) {
		type when struct {
			project    string
			errorOnGet error
			errorOnPut error
		}
		type then struct {
			statusCode int
		}

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"(Not Found) when no project has the name": {
				when{project: "no-such-project"},
				then{statusCode: http.StatusNotFound},
			},
			"(Internal Server Error) when ProjectInterface.Get causes error": {
				when{project: "sales-forecast", errorOnGet: errors.New("dummy error")},
				then{statusCode: http.StatusInternalServerError},
			},
			"(Internal Server Error) when Store.Put causes error": {
				when{project: "sales-forecast", errorOnPut: errors.New("dummy error")},
				then{statusCode: http.StatusInternalServerError},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockProject := knownProject(t)
				if testcase.when.errorOnGet != nil {
					mockProject.Impl.Get = func(context.Context, []string) (map[string]domain.Project, error) {
						return nil, testcase.when.errorOnGet
					}
				}
				mockStore := mockstore.New(t)
				mockStore.Impl.Put = func(ctx context.Context, key string, r io.Reader, size int64) (int64, error) {
					if testcase.when.errorOnPut != nil {
						return 0, testcase.when.errorOnPut
					}
					n := try.To(io.Copy(io.Discard, r)).OrFatal(t)
					return n, nil
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/projects/"+testcase.when.project+"/source",
					bytes.NewBufferString("content"),
					httptestutil.ContentType("application/tar+gzip"),
				)
				c.SetParamNames("project")
				c.SetParamValues(testcase.when.project)

				testee := handlers.PostProjectSourceHandler(mockProject, mockStore, "project")
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}
				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("unexpected error: %+v", err)
				}
				if echoErr.Code != testcase.then.statusCode {
					t.Errorf("status code %d != %d", echoErr.Code, testcase.then.statusCode)
				}
			})
		}
	})
}

func TestGetProjectSourceHandler(t *testing.T) {
	t.Run("it streams the archive back", func(t *testing.T) {
		content := []byte("gzipped tarball, supposedly")

		mockStore := mockstore.New(t)
		var gotKey string
		mockStore.Impl.Get = func(ctx context.Context, key string) (io.ReadCloser, int64, error) {
			gotKey = key
			return io.NopCloser(bytes.NewBuffer(content)), int64(len(content)), nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/projects/sales-forecast/source")
		c.SetParamNames("project")
		c.SetParamValues("sales-forecast")

		testee := handlers.GetProjectSourceHandler(mockStore, "project")
		if err := testee(c); err != nil {
			t.Fatalf("response is not illegal. error = %v", err)
		}

		if expected := domain.ProjectSourceKey("sales-forecast"); gotKey != expected {
			t.Errorf("unmatch: read key: (actual, expected) = (%s, %s)", gotKey, expected)
		}

		resp := respRec.Result()
		if expected := 200; resp.StatusCode != expected {
			t.Errorf("status code %d != %d", resp.StatusCode, expected)
		}
		if actual := strings.Split(resp.Header.Get("Content-Type"), ";")[0]; actual != "application/tar+gzip" {
			t.Errorf("Content-Type: %s != application/tar+gzip", actual)
		}
		if actual := resp.Header.Get("Content-Length"); actual != strconv.Itoa(len(content)) {
			t.Errorf("Content-Length: %s != %d", actual, len(content))
		}
		if !bytes.Equal(respRec.Body.Bytes(), content) {
			t.Errorf(
				"unmatch: content: (actual, expected) = (%s, %s)",
				respRec.Body.Bytes(), content,
			)
		}
	})

	t.Run("it returns error response", func(t *testing.T) {
		type when struct {
			errorOnGet error
		}
		type then struct {
			statusCode int
		}

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"(Not Found) when no archive has been uploaded": {
				when{errorOnGet: kstore.ErrNotExist},
				then{statusCode: http.StatusNotFound},
			},
			"(Internal Server Error) when Store.Get causes error": {
				when{errorOnGet: errors.New("dummy error")},
				then{statusCode: http.StatusInternalServerError},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockStore := mockstore.New(t)
				mockStore.Impl.Get = func(context.Context, string) (io.ReadCloser, int64, error) {
					return nil, 0, testcase.when.errorOnGet
				}

				e := echo.New()
				c, _ := httptestutil.Get(e, "/api/projects/sales-forecast/source")
				c.SetParamNames("project")
				c.SetParamValues("sales-forecast")

				testee := handlers.GetProjectSourceHandler(mockStore, "project")
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}
				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("unexpected error: %+v", err)
				}
				if echoErr.Code != testcase.then.statusCode {
					t.Errorf("status code %d != %d", echoErr.Code, testcase.then.statusCode)
				}
			})
		}
	})
}
