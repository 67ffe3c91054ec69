package objstore

import (
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Options struct {
	// Endpoint is the host:port of the object store. No scheme.
	Endpoint string

	AccessKey string

	SecretKey string

	// UseSSL should be true when the endpoint speaks https.
	UseSSL bool
}

// Connect builds a client for the artifact object store.
//
// It does not dial; the first operation does.
func Connect(opts Options) (*minio.Client, error) {
	return minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
}
