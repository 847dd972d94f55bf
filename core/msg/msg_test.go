package msg

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type (
	testTick struct {
		BroadcastMsg
		N int
	}
	testOrder struct {
		RequestMsg[int]
		Item string
	}
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		m    any
		want Kind
	}{
		{"broadcast value", testTick{N: 1}, KindBroadcast},
		{"broadcast pointer", &testTick{N: 1}, KindBroadcast},
		{"request pointer", &testOrder{Item: "x"}, KindRequest},
		{"request value is not a request", testOrder{Item: "x"}, KindUnknown},
		{"completion", Completion{Request: &testOrder{}, Result: 1}, KindCompletion},
		{"completion pointer", &Completion{}, KindCompletion},
		{"plain value", "hello", KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(tt.m))
		})
	}
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "broadcast", KindBroadcast.String())
	require.Equal(t, "request", KindRequest.String())
	require.Equal(t, "completion", KindCompletion.String())
	require.Equal(t, "unknown", Kind(42).String())
}

func TestRequest_typed(t *testing.T) {
	var r Request[int] = &testOrder{}
	require.NotNil(t, r)

	var ar AnyRequest = r
	_, ok := ar.(Request[string])
	require.False(t, ok, "reply type must be part of the request identity")
}

func TestTypeOf(t *testing.T) {
	ti := TypeOf(testTick{})
	require.Equal(t, "msg.testTick", ti.Name)
	require.Equal(t, reflect.TypeFor[testTick](), ti.Key)

	pi := TypeOf(&testOrder{})
	require.Equal(t, "msg.testOrder", pi.Name)
	require.Equal(t, reflect.Pointer, pi.Key.Kind(), "pointer requests keep their pointer key")

	require.Equal(t, TypeFor[*testOrder](), pi)
	require.NotEqual(t, TypeFor[testOrder]().Key, pi.Key)
}

func TestTypeOf_nil(t *testing.T) {
	ti := TypeOf(nil)
	require.True(t, ti.IsZero())
	require.Equal(t, "", ti.Name)
}

func TestTypeOf_builtin(t *testing.T) {
	require.Equal(t, "string", TypeOf("x").Name)
	require.Equal(t, "[]int", TypeOf([]int{}).Name)
}

func TestTypeOf_concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = TypeOf(testTick{})
				_ = TypeFor[*testOrder]()
			}
		}()
	}
	wg.Wait()

	muTypes.RLock()
	_, ok := types[reflect.TypeFor[testTick]()]
	muTypes.RUnlock()
	require.True(t, ok)
}
