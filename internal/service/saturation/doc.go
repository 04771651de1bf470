// Package saturation models message fatigue per theme as a 0-100 Message
// Saturation Index (MSI).
//
// The MSI combines touch frequency, channel diversity, time decay since the
// last exposure and an adoption-stage modifier. The package also grades
// themes into guidance buckets, produces score modifiers for theme-level
// content scoring, and simulates how a messaging pause decays saturation.
package saturation
