// Package ratings turns a provider payload into the two values written back to
// library items: a 0-10 community rating and a 0-100 critic rating.
//
// Source names are compared after trimming and Unicode case folding. A source's
// score field is authoritative; its native value is only consulted when the
// score is absent, and is mapped onto the 100-point scale by threshold because
// providers do not declare which scale they use.
package ratings
