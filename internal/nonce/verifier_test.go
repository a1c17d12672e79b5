package nonce

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/framegate/internal/clock"
	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrincipals struct {
	mu    sync.Mutex
	ids   map[int64]int64
	calls int
}

func (f *fakePrincipals) RemoteID(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	id, ok := f.ids[userID]
	if !ok {
		return 0, common.ErrNotConnected
	}
	return id, nil
}

type fakeSecrets struct {
	secrets map[int64][]byte
	err     error
}

func (f *fakeSecrets) Secret(_ context.Context, userID int64) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.secrets[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), s...), nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []FailureEvent
}

func (a *recordingAuditor) VerificationFailed(_ context.Context, e FailureEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func atTick(tick int64) time.Time {
	return time.Unix(tick*halfDay, 0)
}

type fixture struct {
	verifier   *Verifier
	principals *fakePrincipals
	secrets    *fakeSecrets
	auditor    *recordingAuditor
	clock      *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		principals: &fakePrincipals{ids: map[int64]int64{1: 42, 2: 77}},
		secrets: &fakeSecrets{secrets: map[int64][]byte{
			1: []byte("secret-of-user-1"),
			2: []byte("secret-of-user-2"),
		}},
		auditor: &recordingAuditor{},
		clock:   clock.Fake(atTick(1000)),
	}
	f.verifier = NewVerifier(f.principals, f.secrets, HMACMD5{}, f.auditor, DefaultLifetime, f.clock)
	return f
}

func TestVerify_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := Compute(HMACMD5{}, []byte("secret-of-user-1"), 1000, "frame-7", 42)

	assert.Equal(t, ValidRecent, f.verifier.Verify(ctx, 1, token, "frame-7"))

	f.clock.Set(atTick(1001))
	assert.Equal(t, ValidStale, f.verifier.Verify(ctx, 1, token, "frame-7"))

	f.clock.Set(atTick(1002))
	assert.Equal(t, Invalid, f.verifier.Verify(ctx, 1, token, "frame-7"))
}

func TestVerify_CreateRoundTrip(t *testing.T) {
	for _, hasher := range []Hasher{HMACMD5{}, Blake3{}} {
		t.Run(hasher.Name(), func(t *testing.T) {
			f := newFixture(t)
			f.verifier = NewVerifier(f.principals, f.secrets, hasher, f.auditor, DefaultLifetime, f.clock)
			ctx := context.Background()

			token, err := f.verifier.Create(ctx, 2, "frame-9")
			require.NoError(t, err)
			assert.Len(t, token, 10)

			assert.Equal(t, ValidRecent, f.verifier.Verify(ctx, 2, token, "frame-9"))
			assert.Equal(t, Invalid, f.verifier.Verify(ctx, 2, token, "frame-10"))
			assert.Equal(t, Invalid, f.verifier.Verify(ctx, 1, token, "frame-9"))
		})
	}
}

func TestVerify_DefaultsToUnscopedAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := Compute(HMACMD5{}, []byte("secret-of-user-1"), 1000, UnscopedAction, 42)
	assert.Equal(t, ValidRecent, f.verifier.Verify(ctx, 1, token, ""))

	created, err := f.verifier.Create(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, token, created)
}

func TestVerify_EmptyTokenIsInvalid(t *testing.T) {
	for _, token := range []string{"", "0"} {
		t.Run(fmt.Sprintf("token %q", token), func(t *testing.T) {
			f := newFixture(t)

			assert.Equal(t, Invalid, f.verifier.Verify(context.Background(), 1, token, "frame-7"))
			assert.Zero(t, f.principals.calls, "blank token must not hit the resolver")
			assert.Empty(t, f.auditor.events)
		})
	}
}

func TestVerify_ZeroPrefixedTokenIsChecked(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, Invalid, f.verifier.Verify(context.Background(), 1, "00", "frame-7"))
	assert.Len(t, f.auditor.events, 1)
}

func TestVerify_UnresolvedPrincipalIsInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// valid for remote id 42, but user 3 has no link
	token := Compute(HMACMD5{}, []byte("secret-of-user-1"), 1000, "frame-7", 42)
	f.secrets.secrets[3] = []byte("secret-of-user-1")

	assert.Equal(t, Invalid, f.verifier.Verify(ctx, 3, token, "frame-7"))
	assert.Empty(t, f.auditor.events)

	_, err := f.verifier.Create(ctx, 3, "frame-7")
	assert.True(t, errors.Is(err, common.ErrNotConnected))
}

func TestVerify_ZeroRemoteIDIsInvalid(t *testing.T) {
	f := newFixture(t)
	f.principals.ids[5] = 0
	f.secrets.secrets[5] = []byte("s")

	token := Compute(HMACMD5{}, []byte("s"), 1000, "frame-7", 0)
	assert.Equal(t, Invalid, f.verifier.Verify(context.Background(), 5, token, "frame-7"))

	_, err := f.verifier.Create(context.Background(), 5, "frame-7")
	assert.ErrorIs(t, err, common.ErrNotConnected)
}

func TestVerify_MissingSecretIsInvalid(t *testing.T) {
	f := newFixture(t)
	token := Compute(HMACMD5{}, []byte("secret-of-user-1"), 1000, "frame-7", 42)

	f.secrets.err = errors.New("db down")
	assert.Equal(t, Invalid, f.verifier.Verify(context.Background(), 1, token, "frame-7"))

	_, err := f.verifier.Create(context.Background(), 1, "frame-7")
	assert.Error(t, err)
}

func TestVerify_FailureEmitsAuditEvent(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, Invalid, f.verifier.Verify(context.Background(), 1, "0123456789", "frame-7"))

	require.Len(t, f.auditor.events, 1)
	assert.Equal(t, FailureEvent{
		Nonce:        "0123456789",
		Action:       "frame-7",
		UserID:       1,
		RemoteUserID: 42,
		Reserved:     "",
	}, f.auditor.events[0])
}

func TestVerify_FailureDoesNotLeakSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, Invalid, f.verifier.Verify(ctx, 1, "bad-nonce!", "frame-7"))

	// the stored secret is untouched and the next check keys with user 2's own secret
	assert.Equal(t, []byte("secret-of-user-1"), f.secrets.secrets[1])
	token := Compute(HMACMD5{}, []byte("secret-of-user-2"), 1000, "frame-7", 77)
	assert.Equal(t, ValidRecent, f.verifier.Verify(ctx, 2, token, "frame-7"))
}

func TestVerify_ConcurrentUsersKeepTheirOwnSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tokens := map[int64]string{
		1: Compute(HMACMD5{}, []byte("secret-of-user-1"), 1000, "frame-7", 42),
		2: Compute(HMACMD5{}, []byte("secret-of-user-2"), 1000, "frame-7", 77),
	}

	var wg sync.WaitGroup
	results := make(chan Result, 200)
	for i := 0; i < 100; i++ {
		for userID, token := range tokens {
			wg.Add(1)
			go func(userID int64, token string) {
				defer wg.Done()
				results <- f.verifier.Verify(ctx, userID, token, "frame-7")
			}(userID, token)
		}
	}
	wg.Wait()
	close(results)

	for r := range results {
		assert.Equal(t, ValidRecent, r)
	}
}

func TestNewVerifier_Defaults(t *testing.T) {
	v := NewVerifier(&fakePrincipals{}, &fakeSecrets{}, nil, nil, 0, nil)

	assert.Equal(t, HashHMACMD5, v.hasher.Name())
	assert.Equal(t, DefaultLifetime, v.lifetime)
	assert.IsType(t, NopAuditor{}, v.auditor)
	assert.NotNil(t, v.clock)
}

func TestLogAuditor_WritesWarning(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	NewLogAuditor(l).VerificationFailed(context.Background(), FailureEvent{
		Nonce: "abc", Action: "frame-7", UserID: 1, RemoteUserID: 42,
	})

	out := buf.String()
	for _, want := range []string{"level=WARN", `msg="verify nonce failed"`, "nonce=abc", "action=frame-7", "user_id=1", "remote_user_id=42", `reserved=""`, "module=nonce_audit"} {
		assert.True(t, strings.Contains(out, want), "expected %q in %s", want, out)
	}
}
