package analysis

const jsonStructure = `
Return the output strictly as a JSON array in the following format:

[
{
"start": <start_time_in_seconds>,
"end": <end_time_in_seconds>,
"summary": "<short description of the moment>",
"score": <quality_score_between_0_and_1000>
}
]`

const strategyPrompt = `
Identify and return all moments where the player makes important strategic
decisions or notable misplays. Cover both good and bad examples of
positioning choices (movement across the map, holding choke points,
rotating), timing decisions (when to engage, retreat, or use abilities) and
resource management (ammo, health, energy, cooldown usage). For each
detected moment return the start and end timestamps in seconds, a 1-2
sentence summary of the decision and its context clarifying whether it was
a good play or a mistake, and a quality score.
` + jsonStructure

const mechanicsPrompt = `
Detect and return all moments of high-skill mechanical execution as well as
significant mechanical failures. Cover both successful and unsuccessful
examples of accuracy (precise aim, headshots, missed shots), reaction times
(fast responses to threats, slow reactions) and combos (stringing multiple
actions together efficiently, failed combos). For each detected moment
return the start and end timestamps in seconds, a 1-2 sentence summary of
the mechanical skill performed and whether it succeeded, and a quality
score.
` + jsonStructure
