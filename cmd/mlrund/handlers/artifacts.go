package handlers

import (
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	binderr "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/errors"
	bindartifact "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/artifacts"
	apiartifacts "github.com/quaark/mlrun-remote-project/pkg/api/types/artifacts"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kdbartifact "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/db"
	kstore "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/store"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	keychain "github.com/quaark/mlrun-remote-project/pkg/domain/keychain/k8s"
	"github.com/quaark/mlrun-remote-project/pkg/domain/keychain/keyprovider"
	"github.com/quaark/mlrun-remote-project/pkg/domain/run/token"
	kio "github.com/quaark/mlrun-remote-project/pkg/utils/io"
	kstrings "github.com/quaark/mlrun-remote-project/pkg/utils/strings"
)

// runTokenFrom verifies the Bearer token of the request.
//
// The returned error, if any, is ready to be returned from the handler.
func runTokenFrom(c echo.Context, keys keyprovider.KeyProvider) (*token.RunClaim, error) {
	ctx := c.Request().Context()

	bearer, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if !ok || bearer == "" {
		return nil, binderr.Unauthorized("run token is required", nil)
	}

	claims, err := token.Verify(ctx, keys, bearer)
	if err != nil {
		if errors.Is(err, keychain.ErrInvalidToken) || errors.Is(err, keychain.ErrNoKeyFound) {
			return nil, binderr.Unauthorized("invalid token", err)
		}
		return nil, binderr.InternalServerError(err)
	}
	return claims, nil
}

// PostArtifactHandler stores the request body as an artifact object and
// registers its index record.
//
// The route is run-token protected: only the worker of the run named in
// the key may publish under that key.
func PostArtifactHandler(
	dbArtifact kdbartifact.Interface,
	store kstore.Interface,
	keys keyprovider.KeyProvider,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()

		// the route is a wildcard; trailing-slash normalization reaches here.
		key := strings.TrimSuffix(c.Param(paramKey), "/")
		_, runId, _, err := domain.ParseArtifactKey(key)
		if err != nil {
			return binderr.BadRequest(err.Error(), err)
		}

		claims, herr := runTokenFrom(c, keys)
		if herr != nil {
			return herr
		}
		if claims.RunId != runId {
			return binderr.Unauthorized("the token does not cover this artifact", nil)
		}

		kind := domain.KindDataset
		if k := c.QueryParam("kind"); k != "" {
			kind, err = domain.AsArtifactKind(k)
			if err != nil {
				return binderr.BadRequest(
					`"kind" should be one of "dataset", "model" or "metrics"`, err,
				)
			}
		}

		if req.Body == nil {
			return binderr.BadRequest("artifact content is required in Body", nil)
		}

		chr := kio.NewMD5Reader(req.Body)
		size, err := store.Put(ctx, key, chr, req.ContentLength)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		// the object is stored at this point; on unmatch, gc sweeps it
		// as an orphan since no record is registered.
		if sent := req.Trailer.Get("x-checksum-md5"); sent != "" &&
			sent != hex.EncodeToString(chr.Sum()) {
			return binderr.BadRequest("checksum unmatch", nil)
		}

		artifact, err := dbArtifact.Register(ctx, domain.ArtifactBody{
			Key:   key,
			Kind:  kind,
			RunId: runId,
			Size:  size,
		})
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				// the run is gone; gc sweeps the orphan object later.
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		c.Response().Header().Add("Content-Type", "application/json")
		return c.JSON(http.StatusOK, bindartifact.ComposeSummary(artifact))
	}
}

// GetArtifactHandler streams an artifact object out of the store.
//
// The route is run-token protected. Reads are allowed within the project
// of the token, so a serving step can fetch models published by its
// upstream steps.
func GetArtifactHandler(
	store kstore.Interface,
	keys keyprovider.KeyProvider,
	paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		key := strings.TrimSuffix(c.Param(paramKey), "/")
		projectName, _, _, err := domain.ParseArtifactKey(key)
		if err != nil {
			return binderr.BadRequest(err.Error(), err)
		}

		claims, herr := runTokenFrom(c, keys)
		if herr != nil {
			return herr
		}
		if claims.Project != projectName {
			return binderr.Unauthorized("the token does not cover this artifact", nil)
		}

		content, _, err := store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kstore.ErrNotExist) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}
		defer content.Close()

		resp := c.Response()
		chw := kio.NewMD5Writer(resp.Writer)
		resp.Header().Add("Trailer", "x-checksum-md5")
		resp.Header().Add("Content-Type", "application/octet-stream")
		resp.WriteHeader(http.StatusOK)

		if _, err := io.Copy(chw, content); err != nil {
			return err
		}
		resp.Header().Add("x-checksum-md5", hex.EncodeToString(chw.Sum()))
		return nil
	}
}

func FindArtifactHandler(dbArtifact kdbartifact.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		query := domain.ArtifactFindQuery{
			ProjectName: kstrings.SplitIfNotEmpty(c.QueryParam("project"), ","),
			RunId:       kstrings.SplitIfNotEmpty(c.QueryParam("run"), ","),
			Name:        kstrings.SplitIfNotEmpty(c.QueryParam("name"), ","),
		}
		for _, k := range kstrings.SplitIfNotEmpty(c.QueryParam("kind"), ",") {
			kind, err := domain.AsArtifactKind(k)
			if err != nil {
				return binderr.BadRequest(
					`"kind" should be one of "dataset", "model" or "metrics"`, err,
				)
			}
			query.Kind = append(query.Kind, kind)
		}

		keys, err := dbArtifact.Find(ctx, query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		artifacts, err := dbArtifact.Get(ctx, keys)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apiartifacts.Summary, 0, len(artifacts))
		for _, key := range keys {
			a, ok := artifacts[key]
			if !ok {
				continue
			}
			resp = append(resp, bindartifact.ComposeSummary(a))
		}

		return c.JSON(http.StatusOK, resp)
	}
}
