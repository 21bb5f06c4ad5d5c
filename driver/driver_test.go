package driver

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatch_FirstMatchWins(t *testing.T) {
	l := NewLatch(StatusIs(403), nil)

	l.Offer(Response{URL: "/a", Status: 200})
	_, ok := l.Observed()
	assert.False(t, ok)

	l.Offer(Response{URL: "/b", Status: 403})
	l.Offer(Response{URL: "/c", Status: 403})

	got, ok := l.Observed()
	require.True(t, ok)
	assert.Equal(t, "/b", got.URL)
}

func TestLatch_IgnoresOffersAfterClose(t *testing.T) {
	closed := 0
	l := NewLatch(StatusIs(403), func() { closed++ })

	l.Close()
	l.Close()
	l.Offer(Response{Status: 403})

	_, ok := l.Observed()
	assert.False(t, ok)
	assert.Equal(t, 1, closed)
	assert.True(t, l.Closed())
}

func TestContextLatch_WatcherStopsOnClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closed := 0
	l := NewContextLatch(ctx, StatusIs(403), func() { closed++ })
	l.Close()

	select {
	case <-l.stopped:
	case <-time.After(time.Second):
		t.Fatal("watcher still running after Close")
	}
	cancel()
	assert.Equal(t, 1, closed)
}

func TestContextLatch_ClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	closed := make(chan struct{})
	l := NewContextLatch(ctx, StatusIs(403), func() { close(closed) })
	cancel()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("latch not closed when context ended")
	}
	<-l.stopped
	assert.True(t, l.Closed())
	l.Offer(Response{Status: 403})
	_, ok := l.Observed()
	assert.False(t, ok)
}

func TestLatch_ConcurrentOffers(t *testing.T) {
	l := NewLatch(StatusIs(403), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := 200
			if i%10 == 0 {
				status = 403
			}
			l.Offer(Response{Status: status})
		}(i)
	}
	wg.Wait()

	got, ok := l.Observed()
	require.True(t, ok)
	assert.Equal(t, 403, got.Status)
}

func TestSelector_String(t *testing.T) {
	tests := []struct {
		sel  Selector
		want string
	}{
		{Label("Email"), "label=Email"},
		{Button("Log in"), "button=Log in"},
		{Text("Locked"), "text=Locked"},
		{LinkTo("/queue"), `css=a[href="/queue"]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.sel.String())
	}
}

func TestSelector_XPath(t *testing.T) {
	xp, err := Label("Email").XPath()
	require.NoError(t, err)
	assert.Contains(t, xp, `//label[contains(normalize-space(.), "Email")]`)

	xp, err = Button(`Say "hi"`).XPath()
	require.NoError(t, err)
	assert.Contains(t, xp, `'Say "hi"'`)

	_, err = CSS("#id").XPath()
	assert.Error(t, err)
}

func TestSelector_TextXPathUsesFullText(t *testing.T) {
	xp, err := Text("Account locked").XPath()
	require.NoError(t, err)

	// <p><b>!</b> Account locked</p> has "Account locked" in its second
	// text node, so the match must use the string value of the element.
	assert.NotContains(t, xp, "text()")
	assert.Contains(t, xp, `contains(normalize-space(.), "Account locked")`)
	assert.Contains(t, xp, `not(descendant::*[`)
	assert.True(t, strings.HasPrefix(xp, "//body//*["))
}

func TestXPathLiteral_BothQuotes(t *testing.T) {
	assert.Equal(t, `concat("it's ", '"', "quoted", '"', "")`, xpathLiteral(`it's "quoted"`))
}
