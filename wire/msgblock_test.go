// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBlockSerialize ensures a block and its header encode deterministically
// and that the header hash changes with every committed field.
func TestBlockSerialize(t *testing.T) {
	t.Parallel()

	block := &MsgBlock{
		Header: BlockHeader{
			Height:        10,
			Timestamp:     1_700_000_000_000,
			Difficulty:    1000,
			FeeConsumer:   125,
			FeeIndustrial: 125,
			Nonce:         9,
		},
	}
	block.AddTransaction(testTx())
	block.AddTransaction(testTx())

	var buf bytes.Buffer
	require.NoError(t, block.Serialize(&buf))
	require.Equal(t, block.SerializeSize(), buf.Len())

	var got MsgBlock
	require.NoError(t, got.Deserialize(bytes.NewReader(buf.Bytes())))
	require.Equal(t, block.Header, got.Header)
	require.Len(t, got.Transactions, 2)
	require.Equal(t, block.BlockHash(), got.BlockHash())

	var hdr bytes.Buffer
	require.NoError(t, block.Header.Serialize(&hdr))
	require.Equal(t, BlockHeaderLen, hdr.Len())

	mutated := block.Header
	mutated.Difficulty++
	require.NotEqual(t, block.Header.BlockHash(), mutated.BlockHash())
}
