// Package descriptor implements gantry's model of a pipeline descriptor:
// the five-section YAML document (machine, general, dependencies, test,
// deployment) that tells a CI runner how a project is built and shipped.
//
// Some warnings about the object model (Pipeline, Stage, Deployment and
// friends):
//   - It is not a schema. CI runners historically accepted keys this model
//     has no field for; unknown keys land in a section's RemainingFields
//     rather than in anything typed.
//   - Round-trips normalise. Unmarshaling accepts several spellings of a
//     stage; marshaling writes back one canonical form. An output document
//     can therefore differ textually from its input while still parsing to
//     an equal Pipeline.
//   - Rendering is the end of the line. The package turns a descriptor into
//     an ordered command sequence and stops; executing the commands is the
//     consuming runner's job.
package descriptor
