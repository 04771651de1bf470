// Package health classifies per-channel HCP engagement into categorical
// health statuses.
//
// Classification is a pure function of one engagement snapshot plus a
// threshold configuration; nothing here touches storage. Cohort aggregation
// reduces per-profile classifications into status distributions for
// dashboards.
package health
