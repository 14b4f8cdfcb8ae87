package beanstalkt

import (
	"reflect"
	"testing"
)

func TestSessionUpdate(t *testing.T) {
	s := newSession()

	s.update(watchRequest("foo"))
	s.update(watchRequest("bar"))
	s.update(ignoreRequest("default"))
	s.update(useRequest("jobs"))

	// Replies to other verbs leave the session alone.
	s.update(statsRequest())
	s.update(&request{op: "delete", cmd: "delete 1", tube: "bogus"})

	if s.using != "jobs" {
		t.Errorf("Expected to be using tube jobs, but got %s", s.using)
	}
	if expected := map[string]bool{"foo": true, "bar": true}; !reflect.DeepEqual(s.watching, expected) {
		t.Errorf("Expected watch list %v, but got %v", expected, s.watching)
	}
}

func TestSessionResyncRequests(t *testing.T) {
	cmds := func(s *session) []string {
		var cmds []string
		for _, req := range s.resyncRequests() {
			cmds = append(cmds, req.cmd)
		}
		return cmds
	}

	t.Run("InitialState", func(t *testing.T) {
		if got := cmds(newSession()); got != nil {
			t.Fatalf("Expected no resync commands, but got %v", got)
		}
	})

	t.Run("WatchAndUse", func(t *testing.T) {
		s := newSession()
		s.update(watchRequest("foo"))
		s.update(useRequest("bar"))

		expected := []string{"watch foo", "use bar"}
		if got := cmds(s); !reflect.DeepEqual(got, expected) {
			t.Fatalf("Expected resync commands %v, but got %v", expected, got)
		}
	})

	t.Run("IgnoredDefault", func(t *testing.T) {
		s := newSession()
		s.update(watchRequest("foo"))
		s.update(ignoreRequest("default"))

		expected := []string{"watch foo", "ignore default"}
		if got := cmds(s); !reflect.DeepEqual(got, expected) {
			t.Fatalf("Expected resync commands %v, but got %v", expected, got)
		}
	})

	t.Run("SortedWatches", func(t *testing.T) {
		s := newSession()
		s.update(watchRequest("zebra"))
		s.update(watchRequest("apple"))
		s.update(watchRequest("mango"))

		expected := []string{"watch apple", "watch mango", "watch zebra"}
		if got := cmds(s); !reflect.DeepEqual(got, expected) {
			t.Fatalf("Expected resync commands %v, but got %v", expected, got)
		}
	})
}
