package tlsutil

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTLSConfig(t *testing.T) {
	cfg := ClientTLSConfig()

	assert.EqualValues(t, tls.VersionTLS12, cfg.MinVersion)
	require.NotEmpty(t, cfg.CipherSuites)

	aead := []uint16{
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	}
	for _, cs := range cfg.CipherSuites {
		assert.Contains(t, aead, cs, "non-AEAD cipher suite %d", cs)
	}
}

func TestTransport(t *testing.T) {
	tr := Transport()
	require.NotNil(t, tr.TLSClientConfig)
	assert.EqualValues(t, tls.VersionTLS12, tr.TLSClientConfig.MinVersion)
	assert.True(t, tr.ForceAttemptHTTP2)
}

func TestClient(t *testing.T) {
	client := Client(15 * time.Second)
	assert.Equal(t, 15*time.Second, client.Timeout)
	require.NotNil(t, client.Transport)
}
