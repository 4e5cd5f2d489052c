package annotations

// Vocabulary is the closed set of class names a reviewer may assign.
type Vocabulary []string

// DefaultVocabulary lists the classes offered when none are configured.
var DefaultVocabulary = Vocabulary{"acne", "scar", "freckle", "mole"}

// Contains reports whether name is one of the vocabulary's classes.
func (v Vocabulary) Contains(name string) bool {
	for _, c := range v {
		if c == name {
			return true
		}
	}
	return false
}
