package search

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/hugr-lab/sagesearch/internal/msgpack"
	"github.com/hugr-lab/sagesearch/internal/serialize"
)

// maxTokenSize bounds a decompressed page token.
const maxTokenSize = 1 << 10

// pageToken is the decoded form of a NextToken.
type pageToken struct {
	Offset      int    `msgpack:"o"`
	Fingerprint uint64 `msgpack:"f"`
}

// tokenCodec turns page tokens into opaque strings:
// msgpack, then zstd, then unpadded base64url.
type tokenCodec struct {
	zstd *serialize.Codec
}

func newTokenCodec() (*tokenCodec, error) {
	z, err := serialize.NewCodec(maxTokenSize)
	if err != nil {
		return nil, err
	}
	return &tokenCodec{zstd: z}, nil
}

func (c *tokenCodec) encode(tok pageToken) (string, error) {
	data, err := msgpack.Encode(tok)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(c.zstd.Compress(data)), nil
}

// decode parses s and checks that it was issued for the request with the
// given fingerprint.
func (c *tokenCodec) decode(s string, fingerprint uint64) (pageToken, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(compressed) == 0 {
		return pageToken{}, fmt.Errorf("%w: not base64url", ErrInvalidNextToken)
	}
	data, err := c.zstd.Decompress(compressed)
	if err != nil {
		return pageToken{}, fmt.Errorf("%w: %w", ErrInvalidNextToken, err)
	}
	var tok pageToken
	if err := msgpack.Decode(data, &tok); err != nil {
		return pageToken{}, fmt.Errorf("%w: %w", ErrInvalidNextToken, err)
	}
	if tok.Fingerprint != fingerprint {
		return pageToken{}, fmt.Errorf("%w: issued for a different request", ErrInvalidNextToken)
	}
	if tok.Offset <= 0 {
		return pageToken{}, fmt.Errorf("%w: offset %d", ErrInvalidNextToken, tok.Offset)
	}
	return tok, nil
}

func (c *tokenCodec) close() {
	c.zstd.Close()
}

// fingerprint identifies the result ordering a token indexes into: the
// resource type, expression and resolved sort. Page size is excluded so
// callers may change MaxResults between pages.
func fingerprint(req Request, sortBy string, order SortOrder) uint64 {
	expr, _ := json.Marshal(req.SearchExpression)
	h := xxh3.New()
	h.WriteString(string(req.Resource))
	h.Write([]byte{0})
	h.Write(expr)
	h.Write([]byte{0})
	h.WriteString(sortBy)
	h.Write([]byte{0})
	h.WriteString(string(order))
	return h.Sum64()
}
