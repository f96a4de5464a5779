package translation

import (
	"MediaScope/internal/ports"
)

// labelsID maps common classifier labels to Indonesian.
var labelsID = map[string]string{
	"cat":                "kucing",
	"tabby":              "kucing tabby",
	"tiger cat":          "kucing belang",
	"Persian cat":        "kucing persia",
	"Egyptian cat":       "kucing mesir",
	"dog":                "anjing",
	"golden retriever":   "golden retriever",
	"Labrador retriever": "labrador retriever",
	"German shepherd":    "german shepherd",
	"beagle":             "beagle",
	"car wheel":          "roda mobil",
	"sports car":         "mobil sport",
	"ambulance":          "ambulans",
	"fire engine":        "mobil pemadam",
	"airliner":           "pesawat penumpang",
	"banana":             "pisang",
	"orange":             "jeruk",
	"pizza":              "pizza",
	"cheeseburger":       "burger keju",
	"coffee mug":         "cangkir kopi",
	"laptop":             "laptop",
	"desktop computer":   "komputer desktop",
	"cellular telephone": "ponsel",
	"television":         "televisi",
	"bookshop":           "toko buku",
}

// StaticTranslator localizes labels through a fixed dictionary. Unknown
// labels and unsupported languages pass through unchanged.
type StaticTranslator struct {
	language string
}

var _ ports.Translator = (*StaticTranslator)(nil)

// New builds a translator for the given target language.
func New(language string) *StaticTranslator {
	return &StaticTranslator{language: language}
}

// Translate returns the localized form of a label, or the label itself when
// no mapping exists.
func (t *StaticTranslator) Translate(label string) (string, error) {
	if t.language != "id" {
		return label, nil
	}
	if localized, ok := labelsID[label]; ok {
		return localized, nil
	}
	return label, nil
}
