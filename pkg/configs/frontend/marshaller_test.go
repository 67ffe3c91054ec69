package frontend_test

import (
	"testing"

	mcf "github.com/quaark/mlrun-remote-project/pkg/configs/frontend"
)

func TestLoadFrontendConfig(t *testing.T) {

	t.Run("it can be created from a config file", func(t *testing.T) {
		result, err := mcf.LoadFrontendConfig("./testdata/config.yaml")

		if err != nil {
			t.Errorf("failed to parse config.: %v", err)
		}
		expectedServerPort := "8080"
		if result.ServerPort != expectedServerPort {
			t.Errorf("unmatch serverport:%s, expected:%s", result.ServerPort, expectedServerPort)
		}
		expectedCert := "/etc/mlrun/tls/server.crt"
		if result.TLS.CertPath != expectedCert {
			t.Errorf("unmatch tls.cert:%s, expected:%s", result.TLS.CertPath, expectedCert)
		}
		expectedKey := "/etc/mlrun/tls/server.key"
		if result.TLS.KeyPath != expectedKey {
			t.Errorf("unmatch tls.key:%s, expected:%s", result.TLS.KeyPath, expectedKey)
		}
		if !result.TLS.Enabled() {
			t.Errorf("tls should be enabled when cert and key are set")
		}

		if result.Cluster == nil {
			t.Fatal("cluster section is missing")
		}
		cluster := result.Cluster.TrySeal()

		expectedURI := "postgres://mlrun-test-pgdb-svc:32555/mlrun"
		if cluster.Database() != expectedURI {
			t.Errorf("unmatch database:%s, expected:%s", cluster.Database(), expectedURI)
		}
		expectedNamespace := "mlrun-test"
		if cluster.Namespace() != expectedNamespace {
			t.Errorf("unmatch namespace:%s, expected:%s", cluster.Namespace(), expectedNamespace)
		}
		expectedApiRoot := "http://127.0.0.1:8080/api"
		if cluster.ApiRoot() != expectedApiRoot {
			t.Errorf("unmatch apiRoot:%s, expected:%s", cluster.ApiRoot(), expectedApiRoot)
		}
	})

}
