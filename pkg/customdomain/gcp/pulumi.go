package gcp

import "github.com/pulumi/pulumi/sdk/v3/go/pulumi"

// toStringOutput lifts a value known at program time into a StringOutput so
// callers can treat static and resource-derived values uniformly.
func toStringOutput(value string) pulumi.StringOutput {
	return pulumi.String(value).ToStringOutput()
}
