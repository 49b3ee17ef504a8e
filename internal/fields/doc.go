// Package fields extracts the recognized keys from a status payload.
//
// Payloads are compact JSON objects such as {"error":5,"ignore":"x"}. The
// tokenizer writes into a fixed pool of MaxTokens spans instead of building
// a document tree; running out of pool is ErrTooManyTokens, any grammar
// violation is ErrMalformed. Only the keys of the root object are examined.
// Nested values are captured as raw spans and never descended into.
//
// The "error" value is converted with C atoi rules: leading digits are used
// and text without any digits yields 0. Malformed numbers therefore become a
// zero status code rather than a parse failure.
package fields
