package model

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies failures across the vault and service layers.
type ErrorKind int

const (
	KindInternal ErrorKind = iota

	// Vault layer.
	KindKeyManagement
	KindEncryption
	KindDecryption
	KindStorage

	// Service layer.
	KindAuth
	KindTokenExpired
	KindNoActivePlayback
	KindNetwork
	KindNetworkTimeout
	KindRateLimited
	KindCorrupted
	KindUnavailable
	KindParse

	// KindFinal marks retry exhaustion.
	KindFinal
)

var kindNames = map[ErrorKind]string{
	KindInternal:         "internal error",
	KindKeyManagement:    "key management failure",
	KindEncryption:       "encryption failure",
	KindDecryption:       "decryption failure",
	KindStorage:          "storage failure",
	KindAuth:             "authentication failure",
	KindTokenExpired:     "token expired",
	KindNoActivePlayback: "no active playback",
	KindNetwork:          "network failure",
	KindNetworkTimeout:   "network timeout",
	KindRateLimited:      "rate limit exceeded",
	KindCorrupted:        "corrupted data",
	KindUnavailable:      "resource unavailable",
	KindParse:            "parse failure",
	KindFinal:            "operation failed after retries",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// AllKinds returns every defined kind.
func AllKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(kindNames))
	for k := KindInternal; k <= KindFinal; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Error is the single error type returned across port boundaries.
// Two Errors match under errors.Is when their kinds are equal, so the
// package-level sentinels can be used as targets.
type Error struct {
	Kind    ErrorKind
	Op      string
	Service ServiceName
	Message string
	Err     error
}

// Sentinels for errors.Is.
var (
	ErrInternal         = &Error{Kind: KindInternal}
	ErrKeyManagement    = &Error{Kind: KindKeyManagement}
	ErrEncryption       = &Error{Kind: KindEncryption}
	ErrDecryption       = &Error{Kind: KindDecryption}
	ErrStorage          = &Error{Kind: KindStorage}
	ErrAuth             = &Error{Kind: KindAuth}
	ErrTokenExpired     = &Error{Kind: KindTokenExpired}
	ErrNoActivePlayback = &Error{Kind: KindNoActivePlayback}
	ErrNetwork          = &Error{Kind: KindNetwork}
	ErrNetworkTimeout   = &Error{Kind: KindNetworkTimeout}
	ErrRateLimited      = &Error{Kind: KindRateLimited}
	ErrCorrupted        = &Error{Kind: KindCorrupted}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
	ErrParse            = &Error{Kind: KindParse}
	ErrFinal            = &Error{Kind: KindFinal}
)

// NewError builds an Error of the given kind wrapping err.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WithService returns a copy of e tagged with svc.
func (e *Error) WithService(svc ServiceName) *Error {
	cp := *e
	cp.Service = svc
	return &cp
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Service != "" {
		b.WriteString(string(e.Service))
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRecoverable reports whether retrying the failed operation may succeed.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindNetworkTimeout, KindRateLimited, KindCorrupted:
		return true
	case KindInternal:
		var ne net.Error
		return errors.As(err, &ne) && ne.Timeout()
	default:
		return false
	}
}

// IsCritical reports whether the failure needs user intervention.
func IsCritical(err error) bool {
	switch KindOf(err) {
	case KindAuth, KindUnavailable, KindKeyManagement:
		return true
	default:
		return false
	}
}

// ServiceKind maps every kind onto the service-layer taxonomy. Service kinds
// map to themselves; vault, internal and unknown kinds collapse into
// KindStorage.
func ServiceKind(k ErrorKind) ErrorKind {
	switch k {
	case KindKeyManagement, KindEncryption, KindDecryption, KindStorage:
		return KindStorage
	case KindAuth, KindTokenExpired, KindNoActivePlayback, KindNetwork, KindNetworkTimeout,
		KindRateLimited, KindCorrupted, KindUnavailable, KindParse, KindFinal:
		return k
	default:
		return KindStorage
	}
}

// ToServiceError converts any error into one whose outermost kind belongs to
// the service layer. The original error stays reachable through Unwrap.
func ToServiceError(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		mapped := ServiceKind(e.Kind)
		if mapped == e.Kind {
			return err
		}
		return &Error{Kind: mapped, Op: e.Op, Service: e.Service, Err: err}
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return &Error{Kind: KindNetworkTimeout, Err: err}
		}
		return &Error{Kind: KindNetwork, Err: err}
	}
	return &Error{Kind: KindStorage, Err: err}
}

// Category groups errors for logging and metrics labels.
func Category(err error) string {
	switch KindOf(err) {
	case KindKeyManagement, KindEncryption, KindDecryption, KindStorage, KindCorrupted:
		return "storage"
	case KindAuth, KindTokenExpired:
		return "authentication"
	case KindNetwork, KindNetworkTimeout, KindRateLimited:
		return "network"
	case KindNoActivePlayback, KindUnavailable:
		return "playback"
	case KindParse:
		return "parse"
	default:
		return "internal"
	}
}

// UserMessage renders err for an end user without internal detail.
func UserMessage(err error) string {
	svc := serviceOf(err)
	switch KindOf(err) {
	case KindAuth:
		return fmt.Sprintf("Could not sign in to %s. Please authenticate again.", svc)
	case KindTokenExpired:
		return fmt.Sprintf("Your %s session has expired. Please authenticate again.", svc)
	case KindNoActivePlayback:
		return "Nothing is playing right now."
	case KindNetwork:
		return "A network error occurred. Check your connection."
	case KindNetworkTimeout:
		return "The request timed out. Please try again."
	case KindRateLimited:
		return fmt.Sprintf("Too many requests to %s. Please wait a minute.", svc)
	case KindKeyManagement, KindEncryption, KindDecryption, KindStorage, KindCorrupted:
		return "Stored credentials could not be read. You may need to sign in again."
	case KindUnavailable:
		return "A required resource is unavailable."
	case KindParse:
		return "The service returned an unexpected response."
	case KindFinal:
		return "The operation failed after several attempts."
	default:
		return "An unexpected error occurred."
	}
}

// RecoverySuggestion returns an action the user can take, or "" when none applies.
func RecoverySuggestion(err error) string {
	switch KindOf(err) {
	case KindAuth, KindTokenExpired:
		return "Run the authorization flow again for this service."
	case KindNetwork, KindNetworkTimeout:
		return "Check your internet connection and retry."
	case KindRateLimited:
		return "Wait 60 seconds before retrying."
	case KindDecryption, KindStorage, KindCorrupted:
		return "Delete the affected secret and store it again."
	case KindKeyManagement:
		return "Check that the system keyring is unlocked and reachable."
	default:
		return ""
	}
}

func serviceOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Service != "" {
		return string(e.Service)
	}
	return "the service"
}
