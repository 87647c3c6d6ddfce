package phonebook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type clock interface {
	Now() int64
}

type fakeClock struct{ t int64 }

func (f *fakeClock) Now() int64 { return f.t }

func TestRegisterThenLookupReturnsSameImplementation(t *testing.T) {
	pb := New()
	c := &fakeClock{t: 42}

	require.NoError(t, Register[clock](pb, c))

	got, err := Lookup[clock](pb)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.Now())
}

func TestLookupBeforeRegisterFails(t *testing.T) {
	pb := New()
	_, err := Lookup[clock](pb)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegisterTwiceForSameKindFails(t *testing.T) {
	pb := New()
	require.NoError(t, Register[clock](pb, &fakeClock{t: 1}))

	err := Register[clock](pb, &fakeClock{t: 2})
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterAfterStartFails(t *testing.T) {
	pb := New()
	pb.Start()

	err := Register[clock](pb, &fakeClock{t: 1})
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestLookupIsSafeAfterStart(t *testing.T) {
	pb := New()
	require.NoError(t, Register[clock](pb, &fakeClock{t: 7}))
	pb.Start()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Lookup[clock](pb)
			require.NoError(t, err)
			require.Equal(t, int64(7), got.Now())
		}()
	}
	wg.Wait()
}
