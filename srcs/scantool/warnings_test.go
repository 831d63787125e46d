package scantool

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elfdeps/srcs/binarytool/elfcore"
)

func TestWarningLogConcurrentAdd(t *testing.T) {
	log := new(WarningLog)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Add(fmt.Sprintf("/f%02d", i), EntryUnreadable, errors.New("denied"))
		}(i)
	}
	wg.Wait()

	records := log.Records()
	require.Len(t, records, 50)
	for i, w := range records {
		assert.Equal(t, fmt.Sprintf("/f%02d", i), w.Path)
	}
}

func TestWarningErrMatchesSentinel(t *testing.T) {
	unreadable := Warning{Path: "/a", Kind: EntryUnreadable, Message: "denied"}
	assert.True(t, errors.Is(unreadable.Err(), ErrEntryUnreadable))
	assert.False(t, errors.Is(unreadable.Err(), elfcore.ErrMalformedDynamicSection))

	malformed := Warning{Path: "/b", Kind: MalformedDynamicSection, Message: "bad offset"}
	assert.True(t, errors.Is(malformed.Err(), elfcore.ErrMalformedDynamicSection))
	assert.Contains(t, malformed.Err().Error(), "/b: bad offset")
}

func TestWarningJSON(t *testing.T) {
	b, err := json.Marshal(Warning{Path: "/a", Kind: MalformedDynamicSection, Message: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/a","kind":"MalformedDynamicSection","message":"m"}`, string(b))
}
