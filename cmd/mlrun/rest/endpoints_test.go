package rest_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	kprof "github.com/quaark/mlrun-remote-project/cmd/mlrun/config/profiles"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	apierr "github.com/quaark/mlrun-remote-project/pkg/api/types/errors"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
)

func TestFindEndpoint(t *testing.T) {
	t.Run("when server returns data, it returns that as is", func(t *testing.T) {
		expectedResponse := []serving.Detail{
			{
				Summary: serving.Summary{
					Name:      "sales-forecast-serving",
					Project:   "sales-forecast",
					ModelName: "forecaster",
					Status:    "ready",
				},
				RunId: "test-runId",
				URL:   "/endpoints/sales-forecast-serving/infer",
				UpdatedAt: try.To(rfctime.ParseRFC3339DateTime(
					"2022-04-02T12:00:00+00:00",
				)).OrFatal(t),
			},
		}

		var request *http.Request
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("request is not GET /api/endpoints (actual method = %s)", r.Method)
			}
			request = r

			w.Header().Add("Content-Type", "application/json")
			body := try.To(json.Marshal(expectedResponse)).OrFatal(t)
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		actualResponse := try.To(testee.FindEndpoint(
			context.Background(),
			krst.FindEndpointParameter{
				ProjectName: []string{"sales-forecast"},
				ModelName:   []string{"forecaster"},
				Status:      []string{"ready"},
			},
		)).OrFatal(t)

		if !cmp.SliceEqWith(actualResponse, expectedResponse, serving.Detail.Equal) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}

		query := request.URL.Query()
		for name, expected := range map[string]string{
			"project": "sales-forecast",
			"model":   "forecaster",
			"status":  "ready",
		} {
			if actual := query.Get(name); actual != expected {
				t.Errorf("query %s is not equal (actual,expected): %s,%s", name, actual, expected)
			}
		}
	})

	t.Run("when server responds with error, it returns error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			buf := try.To(json.Marshal(
				apierr.ErrorMessage{Reason: "something wrong"},
			)).OrFatal(t)
			w.Write(buf)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		if _, err := testee.FindEndpoint(
			context.Background(), krst.FindEndpointParameter{},
		); err == nil {
			t.Error("it does not return error")
		}
	})
}

func TestInfer(t *testing.T) {
	t.Run("it posts the payload and returns the inference", func(t *testing.T) {
		expectedResponse := serving.InferResponse{
			Id:        "infer-1",
			ModelName: "forecaster",
			Outputs:   []float64{0, 1, 1},
		}

		var requestBody []byte
		var request *http.Request
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("request is not POST (actual method = %s)", r.Method)
			}
			request = r
			requestBody = try.To(io.ReadAll(r.Body)).OrFatal(t)

			w.Header().Add("Content-Type", "application/json")
			body := try.To(json.Marshal(expectedResponse)).OrFatal(t)
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		payload := `{"inputs":[[1,2,3]]}`
		actualResponse := try.To(testee.Infer(
			context.Background(), "sales-forecast-serving", strings.NewReader(payload),
		)).OrFatal(t)

		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}
		if string(requestBody) != payload {
			t.Errorf("payload is not passed as is: %s", string(requestBody))
		}
		if !strings.HasSuffix(request.URL.Path, "/endpoints/sales-forecast-serving/infer") {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
	})

	t.Run("when server rejects the request, it returns error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			buf := try.To(json.Marshal(
				apierr.ErrorMessage{Reason: "broken payload"},
			)).OrFatal(t)
			w.Write(buf)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		if _, err := testee.Infer(
			context.Background(), "sales-forecast-serving", strings.NewReader("{}"),
		); err == nil {
			t.Error("it does not return error")
		}
	})
}

func TestRetireEndpoint(t *testing.T) {
	t.Run("it PUTs the retirement and returns the endpoint", func(t *testing.T) {
		expectedResponse := serving.Detail{
			Summary: serving.Summary{
				Name:      "sales-forecast-serving",
				Project:   "sales-forecast",
				ModelName: "forecaster",
				Status:    "retired",
			},
			RunId: "test-runId",
			UpdatedAt: try.To(rfctime.ParseRFC3339DateTime(
				"2022-04-02T12:00:00+00:00",
			)).OrFatal(t),
		}

		var request *http.Request
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("request is not PUT (actual method = %s)", r.Method)
			}
			request = r

			w.Header().Add("Content-Type", "application/json")
			body := try.To(json.Marshal(expectedResponse)).OrFatal(t)
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		actualResponse := try.To(testee.RetireEndpoint(
			context.Background(), "sales-forecast-serving",
		)).OrFatal(t)

		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}
		if !strings.HasSuffix(request.URL.Path, "/endpoints/sales-forecast-serving/retire") {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
	})
}
