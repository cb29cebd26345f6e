package docstore

import (
	"fmt"
	"strings"
)

// DocRef addresses a document. Its path has an even number of segments.
type DocRef struct {
	path string
}

// CollectionRef addresses a collection. Its path has an odd number of
// segments.
type CollectionRef struct {
	path string
}

// Doc builds a document reference from path segments, e.g.
// Doc("students", uid, "stats", "summary").
func Doc(segments ...string) DocRef {
	return DocRef{path: strings.Join(segments, "/")}
}

// Collection builds a collection reference from path segments, e.g.
// Collection("students", uid, "quizzes").
func Collection(segments ...string) CollectionRef {
	return CollectionRef{path: strings.Join(segments, "/")}
}

// String returns the slash-separated path.
func (d DocRef) String() string { return d.path }

// ID returns the document id (last segment).
func (d DocRef) ID() string {
	i := strings.LastIndexByte(d.path, '/')
	return d.path[i+1:]
}

// Parent returns the collection holding the document.
func (d DocRef) Parent() CollectionRef {
	i := strings.LastIndexByte(d.path, '/')
	if i < 0 {
		return CollectionRef{}
	}
	return CollectionRef{path: d.path[:i]}
}

// Collection returns a subcollection of the document.
func (d DocRef) Collection(name string) CollectionRef {
	return CollectionRef{path: d.path + "/" + name}
}

func (d DocRef) validate() error {
	n, err := countSegments(d.path)
	if err != nil {
		return err
	}
	if n%2 != 0 {
		return fmt.Errorf("%w: %q has %d segments, documents need an even count", ErrInvalidPath, d.path, n)
	}
	return nil
}

// String returns the slash-separated path.
func (c CollectionRef) String() string { return c.path }

// Doc returns the document with the given id inside the collection.
func (c CollectionRef) Doc(id string) DocRef {
	return DocRef{path: c.path + "/" + id}
}

func (c CollectionRef) validate() error {
	n, err := countSegments(c.path)
	if err != nil {
		return err
	}
	if n%2 != 1 {
		return fmt.Errorf("%w: %q has %d segments, collections need an odd count", ErrInvalidPath, c.path, n)
	}
	return nil
}

func countSegments(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if strings.TrimSpace(s) == "" {
			return 0, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return len(segs), nil
}
