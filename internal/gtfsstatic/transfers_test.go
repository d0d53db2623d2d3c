package gtfsstatic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransfersToleratesBlankMinTransferTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transfers.txt")
	contents := "from_stop_id,to_stop_id,transfer_type,min_transfer_time\n" +
		"A,B,0,\n" +
		"B,C,2,120\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	transfers, err := parseTransfers(path)
	require.NoError(t, err)
	require.Len(t, transfers, 2)

	assert.Equal(t, "A", transfers[0].FromStopID)
	assert.Equal(t, 0, transfers[0].MinTransferTime)

	assert.Equal(t, "B", transfers[1].FromStopID)
	assert.Equal(t, 120, transfers[1].MinTransferTime)
}
