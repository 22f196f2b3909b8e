package daolite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/daolite"
)

// TestConcurrentProducers buffers records from many goroutines while the
// consumer flushes repeatedly. Every buffered record must surface exactly
// once across the flushes.
func TestConcurrentProducers(t *testing.T) {
	t.Parallel()

	const (
		producers = 8
		perWorker = 50
	)

	reg := openRegistry(t)
	items := daolite.GetAccessor[*Item](reg)

	var g errgroup.Group
	for w := 0; w < producers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				it := NewItem()
				it.Name = "buffered"
				items.AddToBuffer(it)
			}
			return nil
		})
	}

	// Drain while producers are still appending; the swap keeps them
	// unblocked during engine I/O.
	total := 0
	for i := 0; i < 4; i++ {
		total += items.Flush()
	}
	require.NoError(t, g.Wait())
	total += items.Flush()

	assert.Equal(t, producers*perWorker, total)
	assert.Len(t, items.SelectAll(), producers*perWorker)
}

// TestClearBufferDropsBothBuffers clears between adds from several
// goroutines without losing thread safety.
func TestClearBufferDropsBothBuffers(t *testing.T) {
	t.Parallel()

	reg := openRegistry(t)
	items := daolite.GetAccessor[*Item](reg)

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 25; i++ {
				items.AddToBuffer(NewItem())
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	items.ClearBuffer()
	assert.Equal(t, 0, items.Flush())
	assert.Empty(t, items.SelectAll())
}
