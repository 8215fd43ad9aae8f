// Package value converts the text of attributes and leaf elements into typed
// Go values.
//
// Resolution of a text against a target type tries, in order:
//
//  1. pointer unwrap: empty text yields nil, anything else resolves the
//     pointee and wraps it;
//  2. a custom converter registered for the exact type in a ConverterTable;
//  3. enumerations registered in an EnumTable, including "A|B" flag sets;
//  4. reference types (identity.Reference and identity.GlobalID), resolved
//     through the load's reference directory;
//  5. a culture-aware parse method, ParseCulture(text, language.Tag);
//  6. a culture-invariant parse method, encoding.TextUnmarshaler;
//  7. a generic conversion: durations, base64 byte slices and complex
//     numbers directly, everything else through go-cty conversion.
//
// Converter and enum tables are process-wide state with an init-once,
// read-many lifecycle: populate them before the first load that needs them.
package value
