package installer

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/oshokin/ig-installer/internal/domain/install"
	"github.com/oshokin/ig-installer/internal/fhir"
)

// NoticeLevel tells the reporter how to render a Notice.
type NoticeLevel int

const (
	// NoticeInfo is a regular progress step.
	NoticeInfo NoticeLevel = iota
	// NoticeWarning does not change the outcome.
	NoticeWarning
	// NoticeError accompanies a failed result.
	NoticeError
)

// Notice is a message produced while classifying a response.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Classification is the result of Classify.
type Classification struct {
	// Result is the classified outcome of the submission.
	Result install.SubmissionResult
	// Notices are shown to the user in order.
	Notices []Notice
	// Diagnostics holds the raw body of a rejected response for the log.
	Diagnostics string
}

// noIssueDetails replaces an empty issue diagnostics text.
const noIssueDetails = "No details"

// Classify decides what a $install response means. Rules, in order:
//   - a status other than 200 or 201 fails with "server error <code>";
//   - a body that is not a FHIR JSON document counts as synchronous success;
//   - a Task is accepted for tracking by its id;
//   - a Parameters document with a taskId parameter is accepted by that value;
//   - an OperationOutcome fails if any issue has severity error;
//   - anything else succeeds.
func Classify(statusCode int, body []byte) Classification {
	if statusCode != http.StatusOK && statusCode != http.StatusCreated {
		reason := "server error " + strconv.Itoa(statusCode)

		return Classification{
			Result:      install.Failed(reason),
			Notices:     []Notice{{Level: NoticeError, Message: reason}},
			Diagnostics: string(body),
		}
	}

	res, err := fhir.Decode(body)
	if err != nil {
		// A 2xx without a readable document counts as completed.
		return succeeded(Notice{Level: NoticeWarning, Message: "Server response is not FHIR JSON, assuming the installation completed"})
	}

	switch doc := res.(type) {
	case *fhir.Task:
		if doc.ID == "" {
			return succeeded(Notice{Level: NoticeWarning, Message: "Server created a task without an id, it cannot be monitored"})
		}

		return Classification{
			Result:  install.Accepted(doc.ID),
			Notices: []Notice{{Level: NoticeInfo, Message: "Installation task created"}},
		}
	case *fhir.Parameters:
		if c, ok := classifyParameters(doc); ok {
			return c
		}
	case *fhir.OperationOutcome:
		return classifyOutcome(doc)
	}

	return succeeded(Notice{Level: NoticeInfo, Message: "Server response processed"})
}

func classifyParameters(doc *fhir.Parameters) (Classification, bool) {
	param, found := doc.Find(fhir.TaskIDParameterName)
	if !found {
		return Classification{}, false
	}

	if param.ValueString == nil || *param.ValueString == "" {
		return succeeded(Notice{Level: NoticeWarning, Message: "Server returned an empty task id, it cannot be monitored"}), true
	}

	return Classification{
		Result:  install.Accepted(*param.ValueString),
		Notices: []Notice{{Level: NoticeInfo, Message: "Task id received"}},
	}, true
}

func classifyOutcome(doc *fhir.OperationOutcome) Classification {
	var (
		notices = make([]Notice, 0, len(doc.Issue)+1)
		errs    []string
	)

	for _, issue := range doc.Issue {
		details := issueDetails(issue)
		message := strings.ToUpper(issue.Severity) + ": " + details

		if issue.Severity == fhir.SeverityError {
			errs = append(errs, details)
			notices = append(notices, Notice{Level: NoticeError, Message: message})

			continue
		}

		notices = append(notices, Notice{Level: NoticeWarning, Message: message})
	}

	if len(errs) > 0 {
		return Classification{
			Result:  install.Failed(strings.Join(errs, "; ")),
			Notices: notices,
		}
	}

	notices = append(notices, Notice{Level: NoticeInfo, Message: "Server response processed"})

	return Classification{
		Result:  install.Succeeded(),
		Notices: notices,
	}
}

func issueDetails(issue fhir.Issue) string {
	if issue.Diagnostics != "" {
		return issue.Diagnostics
	}

	if issue.Details != nil {
		if label := issue.Details.Label(); label != "" {
			return label
		}
	}

	return noIssueDetails
}

func succeeded(notice Notice) Classification {
	return Classification{
		Result:  install.Succeeded(),
		Notices: []Notice{notice},
	}
}
