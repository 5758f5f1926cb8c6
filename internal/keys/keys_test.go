package keys

import "testing"

func TestIndexLookupSpellings(t *testing.T) {
	ix := NewIndex()
	ix.Add(&Key{
		MD5:     "3a:2b:19:ff:00:cd",
		SHA256:  "SHA256:l9nMCPKgwkWtfRKH4INyvpU3e",
		Comment: "alice@laptop",
	})

	spellings := []string{
		"RSA 3a:2b:19:ff:00:cd",
		"MD5:3a:2b:19:ff:00:cd",
		"3a:2b:19:ff:00:cd",
		"RSA 3A:2B:19:FF:00:CD",
		"SHA256:l9nMCPKgwkWtfRKH4INyvpU3e",
	}
	for _, fp := range spellings {
		k, ok := ix.Lookup(fp)
		if !ok {
			t.Errorf("expected %q to resolve", fp)
			continue
		}
		if k.Comment != "alice@laptop" {
			t.Errorf("%q: comment %q", fp, k.Comment)
		}
	}
}

func TestIndexLookupMisses(t *testing.T) {
	ix := NewIndex()
	ix.Add(&Key{MD5: "3a:2b:19:ff:00:cd"})

	for _, fp := range []string{"", "RSA aa:bb:cc:dd", "SHA256:nope"} {
		if _, ok := ix.Lookup(fp); ok {
			t.Errorf("expected %q to miss", fp)
		}
	}
}

func TestParseAuthorizedKeyRejectsNonKeys(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"# a comment",
		"not an authorized_keys line",
		"ssh-rsa notbase64!!!",
	}
	for _, line := range lines {
		if k, ok := ParseAuthorizedKey(line); ok {
			t.Errorf("expected reject for %q, got %+v", line, k)
		}
	}
}

func TestAddAuthorizedKeysSkipsJunk(t *testing.T) {
	ix := NewIndex()
	n := ix.AddAuthorizedKeys("# header\n\nnot a key\n")
	if n != 0 || ix.Len() != 0 {
		t.Errorf("expected nothing indexed, got n=%d len=%d", n, ix.Len())
	}
}
