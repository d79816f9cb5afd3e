/*
Package volume handles raw backing media: headers, handles and
multi-volume assembly.

A Handle is one opened volume, readable at arbitrary offsets and
carrying a stable media identity used to detect when two mount
requests name the same device. Handles come from an Opener; the
package ships a local-file opener and an S3 opener that serves ranged
reads straight from object storage.

Assemble validates a group of handles into a Set: every header must
parse, agree on the filesystem id and declared volume count, and claim
a distinct volume index. Multi-volume sets require the multi-volume
header version; older media is accepted only as a single volume.
*/
package volume
