package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestMutexLockerContention(t *testing.T) {
	l := NewMutexLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k1", time.Minute)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := l.Acquire(ctx, "k1", time.Minute); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("second acquire = %v, want ErrSyncInProgress", err)
	}

	// A different key is independent.
	otherRelease, err := l.Acquire(ctx, "k2", time.Minute)
	if err != nil {
		t.Fatalf("acquire other key: %v", err)
	}
	otherRelease()

	release()
	release2, err := l.Acquire(ctx, "k1", time.Minute)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestLockKeyIncludesConnectionAndEntity(t *testing.T) {
	a := lockKey("conn-1", "patients")
	b := lockKey("conn-1", "appointments")
	c := lockKey("conn-2", "patients")
	if a == b || a == c {
		t.Fatalf("lock keys collide: %q %q %q", a, b, c)
	}
}
