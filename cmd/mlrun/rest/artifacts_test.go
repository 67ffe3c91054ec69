package rest_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	kprof "github.com/quaark/mlrun-remote-project/cmd/mlrun/config/profiles"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/artifacts"
	apierr "github.com/quaark/mlrun-remote-project/pkg/api/types/errors"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	kio "github.com/quaark/mlrun-remote-project/pkg/utils/io"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
)

func TestPostArtifact(t *testing.T) {
	t.Run("it sends the content with a checksum trailer", func(t *testing.T) {
		content := []byte(`{"coefficients": [1.25, -0.5], "intercept": 0.5}`)
		response := artifacts.Summary{
			Key:   "sales-forecast/step-run-1/model.json",
			Kind:  artifacts.KindModel,
			RunId: "step-run-1",
			Size:  int64(len(content)),
			UpdatedAt: try.To(rfctime.ParseRFC3339DateTime(
				"2024-10-05T12:00:00+00:00",
			)).OrFatal(t),
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("request is not POST /api/artifacts/:key (actual method = %s)", r.Method)
			}
			if !strings.HasSuffix(r.URL.Path, "/artifacts/sales-forecast/step-run-1/model.json") {
				t.Errorf("request is not POST /api/artifacts/:key (actual path = %s)", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer run-token" {
				t.Errorf("unmatch header Authorization: %s", r.Header.Get("Authorization"))
			}
			if kind := r.URL.Query().Get("kind"); kind != "model" {
				t.Errorf("unmatch query kind: %s", kind)
			}
			defer r.Body.Close()

			hreader := kio.NewMD5Reader(r.Body)
			received := try.To(io.ReadAll(hreader)).OrFatal(t)
			if !bytes.Equal(received, content) {
				t.Errorf(
					"unmatch content:\n- actual: %s\n- expected: %s",
					string(received), string(content),
				)
			}

			checksum := r.Trailer.Get("x-checksum-md5")
			if checksum != hex.EncodeToString(hreader.Sum()) {
				t.Error("unmatch checksum.")
			}

			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			m := try.To(json.Marshal(response)).OrFatal(t)
			w.Write(m)
		}))
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		actual := try.To(testee.PostArtifact(
			context.Background(), "run-token",
			"sales-forecast/step-run-1/model.json", artifacts.KindModel,
			bytes.NewReader(content),
		)).OrFatal(t)

		if !actual.Equal(response) {
			t.Errorf(
				"unmatch summary:\n- actual: %+v\n- expected: %+v",
				actual, response,
			)
		}
	})

	t.Run("when server responds with error, it returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			buf := try.To(json.Marshal(
				apierr.ErrorMessage{Reason: "checksum unmatch"},
			)).OrFatal(t)
			w.Write(buf)
		}))
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		if _, err := testee.PostArtifact(
			context.Background(), "run-token",
			"sales-forecast/step-run-1/model.json", artifacts.KindModel,
			strings.NewReader("broken"),
		); err == nil {
			t.Error("it does not return error")
		}
	})
}

func TestGetArtifact(t *testing.T) {
	payload := []byte("a,b\n1,2\n3,4\n")

	t.Run("when server responds in chunked, it streams the content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("request is not GET /api/artifacts/:key (actual method = %s)", r.Method)
			}
			if !strings.HasSuffix(r.URL.Path, "/artifacts/sales-forecast/step-run-1/rows.csv") {
				t.Errorf("request is not GET /api/artifacts/:key (actual path = %s)", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer run-token" {
				t.Errorf("unmatch header Authorization: %s", r.Header.Get("Authorization"))
			}

			w.Header().Add("Transfer-Encoding", "chunked")
			w.Header().Add("Trailer", "x-checksum-md5")
			w.WriteHeader(http.StatusOK)

			hasher := md5.New()
			hasher.Write(payload)
			w.Header().Add("x-checksum-md5", hex.EncodeToString(hasher.Sum(nil)))

			w.Write(payload)
		}))
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		err := testee.GetArtifact(
			context.Background(), "run-token",
			"sales-forecast/step-run-1/rows.csv",
			func(r io.Reader) error {
				actual, err := io.ReadAll(r)
				if err != nil {
					return err
				}
				if !bytes.Equal(actual, payload) {
					t.Errorf(
						"unmatch content:\n- actual: %s\n- expected: %s",
						string(actual), string(payload),
					)
				}
				return nil
			},
		)
		if err != nil {
			t.Fatalf("GetArtifact has returned error: %s", err)
		}
	})

	t.Run("when checksum in response is wrong, it returns ErrChecksumUnmatch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Transfer-Encoding", "chunked")
			w.Header().Add("Trailer", "x-checksum-md5")
			w.WriteHeader(http.StatusOK)

			hasher := md5.New()
			hasher.Write([]byte("wrong:"))
			hasher.Write(payload)
			w.Header().Add("x-checksum-md5", hex.EncodeToString(hasher.Sum(nil)))

			w.Write(payload)
		}))
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		err := testee.GetArtifact(
			context.Background(), "run-token",
			"sales-forecast/step-run-1/rows.csv",
			func(r io.Reader) error {
				_, err := io.ReadAll(r)
				return err
			},
		)
		if !errors.Is(err, krst.ErrChecksumUnmatch) {
			t.Fatalf(
				"GetArtifact has returned unexpected error: %s (want %s)",
				err, krst.ErrChecksumUnmatch,
			)
		}
	})

	t.Run("when server sends no checksum trailer, it returns ErrChecksumUnmatch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
		}))
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		err := testee.GetArtifact(
			context.Background(), "run-token",
			"sales-forecast/step-run-1/rows.csv",
			func(r io.Reader) error {
				_, err := io.ReadAll(r)
				return err
			},
		)
		if !errors.Is(err, krst.ErrChecksumUnmatch) {
			t.Fatalf(
				"GetArtifact has returned unexpected error: %s (want %s)",
				err, krst.ErrChecksumUnmatch,
			)
		}
	})

	t.Run("when handler returns error, it returns that error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Transfer-Encoding", "chunked")
			w.Header().Add("Trailer", "x-checksum-md5")
			w.WriteHeader(http.StatusOK)

			hasher := md5.New()
			hasher.Write(payload)
			w.Header().Add("x-checksum-md5", hex.EncodeToString(hasher.Sum(nil)))

			w.Write(payload)
		}))
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		expectedErr := errors.New("some error")
		err := testee.GetArtifact(
			context.Background(), "run-token",
			"sales-forecast/step-run-1/rows.csv",
			func(io.Reader) error { return expectedErr },
		)
		if !errors.Is(err, expectedErr) {
			t.Errorf(
				"unexpected error is returned:\n- actual: %s\n- expected: %s",
				err, expectedErr,
			)
		}
	})

	t.Run("when server responds with 404, it returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			buf := try.To(json.Marshal(
				apierr.ErrorMessage{Reason: "not found"},
			)).OrFatal(t)
			w.Write(buf)
		}))
		defer server.Close()

		profile := kprof.Profile{ApiRoot: server.URL}
		testee := try.To(krst.NewClient(&profile)).OrFatal(t)

		err := testee.GetArtifact(
			context.Background(), "run-token",
			"sales-forecast/step-run-1/rows.csv",
			func(io.Reader) error {
				t.Error("callback is called")
				return nil
			},
		)
		if err == nil {
			t.Errorf("GetArtifact does not return error")
		}
	})
}
