package lockproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncImmediatePushSuccess(t *testing.T) {
	r := &fakeRemote{pushResults: []bool{true}}
	assert.Equal(t, syncSuccess, sync(r))
	assert.Empty(t, r.messages, "sync must not commit, only push/pull")
}

func TestSyncRebaseThenPushSucceeds(t *testing.T) {
	r := &fakeRemote{
		pushResults: []bool{false, true},
		pullResults: []bool{true},
	}
	assert.Equal(t, syncSuccess, sync(r))
}

func TestSyncRebaseConflictReturnsConflict(t *testing.T) {
	r := &fakeRemote{
		pushResults: []bool{false},
		pullResults: []bool{false},
	}
	assert.Equal(t, syncConflict, sync(r))
}

func TestSyncExhaustsRetriesThenConflict(t *testing.T) {
	r := &fakeRemote{
		pushResults: []bool{false, false, false, false},
		pullResults: []bool{true, true, true},
	}
	assert.Equal(t, syncConflict, sync(r))
}

func TestSyncRetryBoundIsThree(t *testing.T) {
	assert.Equal(t, 3, MaxSyncRetries, "inherited magic constant, spec §9")
}
