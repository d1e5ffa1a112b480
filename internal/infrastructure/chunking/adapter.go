package chunking

// TextNormalizer adapts the package functions to the normalizer port.
type TextNormalizer struct{}

func NewNormalizer() TextNormalizer { return TextNormalizer{} }

func (TextNormalizer) Normalize(text string) string      { return Normalize(text) }
func (TextNormalizer) DetectLanguage(text string) string { return DetectLanguage(text) }
