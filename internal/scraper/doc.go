// package scraper extracts wish-list entries from bangumi list pages.
//
// A page is the HTML of /anime/list/{username}/wish. Each "li.item" under "#browserItemList"
// is one subject; its cover link carries the subject id and its ".info.tip" node carries
// the release date alongside the episode count.
package scraper
