package model_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return e.timeout }

var _ net.Error = timeoutErr{}

func TestError_IsMatchesKind(t *testing.T) {
	inner := model.Errorf(model.KindDecryption, "vault.Decrypt", "auth tag mismatch")
	err := fmt.Errorf("loading token: %w", model.NewError(model.KindStorage, "vault.Retrieve", inner))

	assert.ErrorIs(t, err, model.ErrStorage)
	assert.ErrorIs(t, err, model.ErrDecryption)
	assert.NotErrorIs(t, err, model.ErrAuth)
	assert.Equal(t, model.KindStorage, model.KindOf(err))
}

func TestError_Message(t *testing.T) {
	err := model.Errorf(model.KindAuth, "oauth.Refresh", "invalid_grant").WithService(model.ServiceSpotify)
	assert.Equal(t, "oauth.Refresh: spotify: authentication failure: invalid_grant", err.Error())

	wrapped := model.NewError(model.KindNetwork, "", errors.New("connection refused"))
	assert.Equal(t, "network failure: connection refused", wrapped.Error())
}

func TestError_WithServiceCopies(t *testing.T) {
	base := model.Errorf(model.KindAuth, "op", "x")
	tagged := base.WithService(model.ServiceYouTube)

	assert.Empty(t, base.Service)
	assert.Equal(t, model.ServiceYouTube, tagged.Service)
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, model.KindInternal, model.KindOf(errors.New("boom")))
}

func TestServiceKind_IsTotal(t *testing.T) {
	serviceKinds := map[model.ErrorKind]bool{
		model.KindStorage: true, model.KindAuth: true,
		model.KindTokenExpired: true, model.KindNoActivePlayback: true, model.KindNetwork: true,
		model.KindNetworkTimeout: true, model.KindRateLimited: true, model.KindCorrupted: true,
		model.KindUnavailable: true, model.KindParse: true, model.KindFinal: true,
	}

	for _, k := range model.AllKinds() {
		t.Run(k.String(), func(t *testing.T) {
			assert.True(t, serviceKinds[model.ServiceKind(k)], "kind %v mapped outside the service layer", k)
		})
	}
	assert.Equal(t, model.KindStorage, model.ServiceKind(model.KindInternal))
	assert.Equal(t, model.KindStorage, model.ServiceKind(model.ErrorKind(999)))
}

func TestToServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind model.ErrorKind
	}{
		{"key management", model.Errorf(model.KindKeyManagement, "op", "locked"), model.KindStorage},
		{"encryption", model.Errorf(model.KindEncryption, "op", "x"), model.KindStorage},
		{"decryption", model.Errorf(model.KindDecryption, "op", "x"), model.KindStorage},
		{"auth passes through", model.Errorf(model.KindAuth, "op", "x"), model.KindAuth},
		{"rate limited passes through", model.Errorf(model.KindRateLimited, "op", "x"), model.KindRateLimited},
		{"net timeout", timeoutErr{timeout: true}, model.KindNetworkTimeout},
		{"net failure", timeoutErr{timeout: false}, model.KindNetwork},
		{"internal", model.Errorf(model.KindInternal, "op", "x"), model.KindStorage},
		{"plain", errors.New("boom"), model.KindStorage},
		{"context canceled", context.Canceled, model.KindStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.ToServiceError(tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.wantKind, model.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, model.ToServiceError(nil))
}

func TestToServiceError_KeepsServiceTag(t *testing.T) {
	err := model.Errorf(model.KindDecryption, "op", "x").WithService(model.ServiceSpotify)

	var got *model.Error
	require.ErrorAs(t, model.ToServiceError(err), &got)
	assert.Equal(t, model.KindStorage, got.Kind)
	assert.Equal(t, model.ServiceSpotify, got.Service)
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", model.ErrNetworkTimeout, true},
		{"rate limited", model.ErrRateLimited, true},
		{"corrupted", model.ErrCorrupted, true},
		{"network", model.ErrNetwork, false},
		{"auth", model.ErrAuth, false},
		{"token expired", model.ErrTokenExpired, false},
		{"final", model.NewError(model.KindFinal, "retry", model.ErrNetworkTimeout), false},
		{"raw net timeout", timeoutErr{timeout: true}, true},
		{"raw net failure", timeoutErr{timeout: false}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.IsRecoverable(tt.err))
		})
	}
}

func TestIsCritical(t *testing.T) {
	assert.True(t, model.IsCritical(model.ErrAuth))
	assert.True(t, model.IsCritical(model.ErrUnavailable))
	assert.True(t, model.IsCritical(model.ErrKeyManagement))
	assert.False(t, model.IsCritical(model.ErrNetwork))
	assert.False(t, model.IsCritical(nil))
}

func TestUserMessage(t *testing.T) {
	err := model.Errorf(model.KindTokenExpired, "op", "x").WithService(model.ServiceSpotify)
	assert.Equal(t, "Your spotify session has expired. Please authenticate again.", model.UserMessage(err))
	assert.Equal(t, "Could not sign in to the service. Please authenticate again.", model.UserMessage(model.ErrAuth))

	for _, k := range model.AllKinds() {
		assert.NotEmpty(t, model.UserMessage(&model.Error{Kind: k}), k.String())
	}
}

func TestCategoryAndSuggestion(t *testing.T) {
	assert.Equal(t, "storage", model.Category(model.ErrDecryption))
	assert.Equal(t, "authentication", model.Category(model.ErrTokenExpired))
	assert.Equal(t, "network", model.Category(model.ErrRateLimited))
	assert.Equal(t, "internal", model.Category(errors.New("boom")))

	assert.Equal(t, "Wait 60 seconds before retrying.", model.RecoverySuggestion(model.ErrRateLimited))
	assert.Empty(t, model.RecoverySuggestion(model.ErrParse))
}
