package models

// Group is the grouping of an entry (group-title attribute or #EXTGRP).
type Group struct {
	Title string `json:"title"`
}

// GroupCount is a group title with the number of stored entries carrying it.
type GroupCount struct {
	Title   string `json:"title"`
	Entries int    `json:"entries"`
}
