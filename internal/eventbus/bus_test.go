package eventbus

import (
	"errors"
	"reflect"
	"testing"
)

func TestBus_PublishesInSubscriptionOrder(t *testing.T) {
	b := New[string, int]()
	var got []string
	b.Subscribe("a", func(v int) { got = append(got, "first") })
	b.Subscribe("a", func(v int) { got = append(got, "second") })
	b.Subscribe("b", func(v int) { got = append(got, "other") })

	b.Publish("a", 1)

	want := []string{"first", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestBus_PanicIsContained(t *testing.T) {
	var recovered []any
	b := New[string, int](WithRecover(func(kind string, r any) {
		recovered = append(recovered, r)
	}))
	var after bool
	b.Subscribe("a", func(int) { panic("boom") })
	b.Subscribe("a", func(int) { after = true })

	b.Publish("a", 1)

	if !after {
		t.Fatalf("handler after the panicking one did not run")
	}
	if len(recovered) != 1 || recovered[0] != "boom" {
		t.Fatalf("recovered = %v, want [boom]", recovered)
	}
}

func TestBus_UnsubscribeDuringPublishKeepsSnapshot(t *testing.T) {
	b := New[string, int]()
	var calls []string
	var unsubSecond func()
	b.Subscribe("a", func(int) {
		calls = append(calls, "first")
		unsubSecond()
	})
	unsubSecond = b.Subscribe("a", func(int) { calls = append(calls, "second") })

	b.Publish("a", 1)
	if !reflect.DeepEqual(calls, []string{"first", "second"}) {
		t.Fatalf("first publish calls = %v", calls)
	}

	calls = nil
	b.Publish("a", 2)
	if !reflect.DeepEqual(calls, []string{"first"}) {
		t.Fatalf("second publish calls = %v, want [first]", calls)
	}
}

func TestBus_SubscribeDuringPublishNotCalledUntilNext(t *testing.T) {
	b := New[string, int]()
	var late int
	var once bool
	b.Subscribe("a", func(int) {
		if !once {
			once = true
			b.Subscribe("a", func(int) { late++ })
		}
	})

	b.Publish("a", 1)
	if late != 0 {
		t.Fatalf("late handler called during the publish that added it")
	}
	b.Publish("a", 2)
	if late != 1 {
		t.Fatalf("late handler calls = %d, want 1", late)
	}
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	b := New[string, int]()
	unsub := b.Subscribe("a", func(int) {})
	b.Subscribe("a", func(int) {})
	unsub()
	unsub()
	if got := b.Count("a"); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestPanicError(t *testing.T) {
	base := errors.New("inner")
	if err := PanicError(base); !errors.Is(err, base) {
		t.Fatalf("PanicError(error) = %v, want wrapping inner", err)
	}
	if err := PanicError(3); err.Error() != "handler panic: 3" {
		t.Fatalf("PanicError(3) = %q", err.Error())
	}
}
