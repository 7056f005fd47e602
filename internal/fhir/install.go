package fhir

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Operation paths and parameter names of the implementation guide installation.
const (
	InstallOperationPath = "/ImplementationGuide/$install"
	TaskPathPrefix       = "/Task/"

	// PackageParameterName carries the base64 encoded NPM package.
	PackageParameterName = "npmContent"
	// TaskIDParameterName carries the id of the task created for the installation.
	TaskIDParameterName = "taskId"
)

// NewInstallParameters wraps the package contents in the $install envelope.
func NewInstallParameters(content []byte) *Parameters {
	return &Parameters{
		Parameter: []Parameter{
			{
				Name:              PackageParameterName,
				ValueBase64Binary: base64.StdEncoding.EncodeToString(content),
			},
		},
	}
}

// EncodeInstallRequest returns the JSON body of the $install request.
func EncodeInstallRequest(content []byte) ([]byte, error) {
	body, err := json.Marshal(NewInstallParameters(content))
	if err != nil {
		return nil, fmt.Errorf("encode install parameters: %w", err)
	}

	return body, nil
}
