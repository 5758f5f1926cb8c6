// Package keys indexes authorized_keys material by fingerprint so classified
// login records can be annotated with the key they were made with. Old
// OpenSSH releases log the legacy hex-colon MD5 form ("RSA aa:bb:..."), newer
// ones the SHA256 form; the index answers for both.
package keys

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

type Key struct {
	Type    string `json:"type"`
	Comment string `json:"comment"`
	MD5     string `json:"md5"`    // "aa:bb:..." hex-colon form, lowercase
	SHA256  string `json:"sha256"` // "SHA256:..."
}

// Index is a fingerprint -> key lookup table. Safe for concurrent use; the
// ingest pipeline reads it while reloads repopulate it.
type Index struct {
	mu    sync.RWMutex
	byMD5 map[string]*Key
	bySHA map[string]*Key
}

func NewIndex() *Index {
	return &Index{
		byMD5: make(map[string]*Key),
		bySHA: make(map[string]*Key),
	}
}

func (ix *Index) Add(k *Key) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if k.MD5 != "" {
		ix.byMD5[strings.ToLower(k.MD5)] = k
	}
	if k.SHA256 != "" {
		ix.bySHA[k.SHA256] = k
	}
}

// Lookup resolves a fingerprint as it appears in an sshd log token. Accepted
// spellings: "RSA aa:bb:...", "MD5:aa:bb:...", a bare hex-colon string, or
// "SHA256:...".
func (ix *Index) Lookup(fingerprint string) (*Key, bool) {
	fp := strings.TrimSpace(fingerprint)
	if fp == "" {
		return nil, false
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if strings.HasPrefix(fp, "SHA256:") {
		k, ok := ix.bySHA[fp]
		return k, ok
	}

	// Strip a leading algorithm tag ("RSA aa:bb") or MD5 marker.
	if _, rest, ok := strings.Cut(fp, " "); ok {
		fp = rest
	}
	fp = strings.TrimPrefix(fp, "MD5:")
	k, ok := ix.byMD5[strings.ToLower(fp)]
	return k, ok
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byMD5)
}

// ParseAuthorizedKey parses a single authorized_keys line. Options
// (command=, from=, ...) are tolerated; blank lines and comments are not
// keys.
func ParseAuthorizedKey(line string) (*Key, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	pk, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return nil, false
	}
	return &Key{
		Type:    pk.Type(),
		Comment: comment,
		MD5:     strings.TrimPrefix(ssh.FingerprintLegacyMD5(pk), "MD5:"),
		SHA256:  ssh.FingerprintSHA256(pk),
	}, true
}

// AddAuthorizedKeys indexes every parseable key in the given file content and
// reports how many were added.
func (ix *Index) AddAuthorizedKeys(content string) int {
	n := 0
	s := bufio.NewScanner(strings.NewReader(content))
	for s.Scan() {
		if k, ok := ParseAuthorizedKey(s.Text()); ok {
			ix.Add(k)
			n++
		}
	}
	return n
}

// LoadFile indexes an authorized_keys file from disk.
func (ix *Index) LoadFile(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read authorized_keys %s: %w", path, err)
	}
	return ix.AddAuthorizedKeys(string(b)), nil
}
