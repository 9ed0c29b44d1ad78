// Package dtc detects OBD-II diagnostic trouble codes in customer messages.
//
// Codes are a family letter (P powertrain, B body, C chassis, U network) followed
// by four digits. Each detected code gets a severity from its two-character prefix
// and a vehicle system from its three-character prefix. Descriptions come from an
// injected Lookup; codes it cannot describe get a generic description and mark the
// evaluation as needing more information.
//
// Example usage:
//
//	detector := dtc.NewDetector(dtc.NewStaticLookup(dtc.DefaultDescriptions()), logger)
//	res := detector.Evaluate(ctx, "My car shows P0420 and P0700")
//	// res.Evaluation.Codes[0].Description == "Catalyst System Efficiency Below Threshold (Bank 1)"
//	// res.Evaluation.NeedsAdditionalInfo == true (P0700 is unknown)
package dtc
