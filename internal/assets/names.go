package assets

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

var namePlaceholder = regexp.MustCompile(`\[(name|ext|hash|chunkhash|contenthash)(?::(\d+))?\]`)

// contentHash is the hex xxhash of contents.
func contentHash(contents []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(contents))
}

// renderName fills a file name pattern such as images/[name].[hash:8].[ext].
// Every hash placeholder is the content hash, truncated to the requested length.
func renderName(pattern, name, ext string, contents []byte) string {
	hash := ""
	return namePlaceholder.ReplaceAllStringFunc(pattern, func(token string) string {
		match := namePlaceholder.FindStringSubmatch(token)
		switch match[1] {
		case "name":
			return name
		case "ext":
			return ext
		}

		if hash == "" {
			hash = contentHash(contents)
		}
		if n, err := strconv.Atoi(match[2]); err == nil && n > 0 && n < len(hash) {
			return hash[:n]
		}
		return hash
	})
}
