// Package language normalizes the language of a comic to ISO 639-1.
//
// ComicInfo records carry LanguageISO in whatever form the tagger wrote
// ("en", "eng", "fre", "English", "en-US"); scene file names sometimes carry
// the language as a parenthesized word, in English or in the language itself.
// Codes are parsed as BCP 47 tags and names come from the CLDR display tables.
package language
