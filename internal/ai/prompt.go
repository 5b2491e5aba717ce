package ai

import (
	"fmt"
	"strings"

	"framesight/pkg/util"
)

// Languages maps a language key to the instruction appended to the
// prompt. The "auto" key adds nothing and lets the model pick.
var Languages = map[string]string{
	"korean":   "Please answer in Korean.",
	"english":  "Please answer in English.",
	"japanese": "Please answer in Japanese.",
	"chinese":  "Please answer in Chinese.",
	"auto":     "",
}

const promptTemplate = `The following are %d consecutive frames extracted from a video at %s.
The full video is %s long.

**Important**: these frames come from one continuous video.
Do not analyze frames individually; capture the flow and narrative of the
whole video and summarize it as one piece.

Respond in this format:

## Video Summary
(3-5 sentences covering the subject and content of the whole video)

## Key Points
(bullet list of the video's core messages or information)

## Details
- **Elements**: main people, places, objects
- **On-screen text**: notable text shown in the video, if any
- **Tone**: the overall mood and feel

**Note**:
- Do not reference individual frame numbers such as "Frame 1" or "Frame 2".
- Focus on the narrative arc of the whole video.
- Do not print intermediate reasoning or work plans. Start directly with "## Video Summary".

%s`

// BuildPrompt renders the analysis prompt for a request.
func BuildPrompt(req Request) string {
	var intervalDesc string
	if req.Interval > 0 {
		intervalDesc = fmt.Sprintf("%ds intervals", int(req.Interval.Seconds()))
	} else {
		intervalDesc = "keyframe positions"
	}

	instruction := Languages[req.Language]

	prompt := fmt.Sprintf(promptTemplate,
		req.FrameCount,
		intervalDesc,
		util.HumanDuration(req.Duration),
		instruction,
	)
	prompt = strings.TrimRight(prompt, "\n")

	if req.CustomPrompt != "" {
		prompt += "\n\n**Additional request**: " + req.CustomPrompt
	}

	return prompt
}
