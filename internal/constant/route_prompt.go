package constant

// RouteDecisionPromptV1 decides whether a message needs the database at
// all. Messages carrying the /db directive never reach this check.
const RouteDecisionPromptV1 = `Decide: does this message need fleet database data or is it general chat?

Query the database when the message involves:
- ECUs, vehicles, devices, fleets, firmware, operations
- Counts, lists, lookups, date ranges over platform records
- Refinements of a previous data question ("only active ones", "and last week?")

Answer directly when the message is clearly:
- Greeting or casual chat
- A question about assistant capabilities

When uncertain, query the database.

Message: %s

Respond: "True" (database) or "False" (chat)`
